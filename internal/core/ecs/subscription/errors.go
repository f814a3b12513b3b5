package subscription

import "errors"

// ErrNoSource is returned by Save when the loader has not yet been
// wired to a ComponentSource (Environment wires this immediately
// after constructing both, so this should only surface if a caller
// builds a Loader standalone and calls Save before SetSource).
var ErrNoSource = errors.New("subscription: no component source configured")
