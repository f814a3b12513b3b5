package value

import "errors"

var (
	// ErrUnknownType is returned when a type tag is not one of the closed set
	// {int|integer, float, str|string, bool|boolean, vector2, vector3}.
	ErrUnknownType = errors.New("value: unknown type")

	// ErrValueShape is returned when a document fragment does not match the
	// shape required by its type tag (e.g. a string where a number is expected,
	// or a sequence of the wrong length for a vector).
	ErrValueShape = errors.New("value: shape mismatch")
)
