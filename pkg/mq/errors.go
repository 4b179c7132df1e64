package mq

import "errors"

// ErrHandlerPanic marks an error recovered from a panicking handler; it is retryable.
var ErrHandlerPanic = errors.New("handler panic")
