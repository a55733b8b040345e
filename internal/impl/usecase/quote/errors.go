package impl_quote

import "errors"

var ErrInvalidInput = errors.New("invalid input data")
