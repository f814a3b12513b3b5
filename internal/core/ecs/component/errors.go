package component

import "errors"

var (
	// ErrShapeMismatch is returned when a schema document does not have
	// the {name, data: {field: type_tag}} shape new_from_schema_doc requires.
	ErrShapeMismatch = errors.New("component: schema document shape mismatch")
)
