package environment

import "errors"

var (
	// ErrNoSuchEntity is returned when a name lookup fails to resolve
	// to an id where an id was required.
	ErrNoSuchEntity = errors.New("environment: no such entity")

	// ErrNotAttached is returned by Component when the resolved
	// entity does not currently carry the requested component.
	ErrNotAttached = errors.New("environment: component not attached")
)
