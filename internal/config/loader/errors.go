package loader

import "errors"

// ErrUnsupportedFormat is returned for configuration files with an unknown
// extension.
var ErrUnsupportedFormat = errors.New("unsupported config format")
