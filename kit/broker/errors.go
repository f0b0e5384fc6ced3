package broker

import "errors"

var ErrHandlerPanic = errors.New("broker: handler panic")
