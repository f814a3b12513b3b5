package entity

import "errors"

// ErrBootstrap wraps the error Bootstrap returns when the root cannot
// be walked. A single file that cannot be read or decoded is logged
// and skipped rather than aborting the whole walk.
var ErrBootstrap = errors.New("entity: bootstrap failure")
