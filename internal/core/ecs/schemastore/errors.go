package schemastore

import "errors"

// ErrNotSubscribed is returned by GetComponent when the requested
// entity has no instance in this store, regardless of its active flag.
var ErrNotSubscribed = errors.New("schemastore: entity not subscribed")
