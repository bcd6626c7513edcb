package commitment

import "errors"

// ErrNilValue is returned when a nil value is provided
var ErrNilValue = errors.New("value cannot be nil")
