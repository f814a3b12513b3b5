package docfmt

import "errors"

// ErrIoOrParse is returned when a bootstrap file cannot be read or its
// contents cannot be decoded as JSON or YAML.
var ErrIoOrParse = errors.New("docfmt: io or parse failure")
