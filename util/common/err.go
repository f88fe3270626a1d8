// Package common holds small error helpers shared across packages.
package common

import (
	"errors"

	"github.com/dispatchhub/dispatch/logger"
)

// Combine joins the non-nil errors into one, or returns nil when all are nil.
func Combine(errs ...error) error {
	return errors.Join(errs...)
}

// Recover logs and swallows a panic. It must be deferred directly.
func Recover(msg string) any {
	panicErr := recover()
	if panicErr != nil {
		if msg != "" {
			logger.Errorf("%s panic: %v", msg, panicErr)
		}
	}
	return panicErr
}
