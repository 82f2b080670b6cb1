package models

import (
	"errors"
	"fmt"
)

var (
	// ErrData marks malformed or insufficient input data.
	ErrData = errors.New("data error")
	// ErrInvalidParameter marks an out-of-range caller parameter.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrForecastUnavailable marks a failed or invalid forecast model query.
	ErrForecastUnavailable = errors.New("forecast unavailable")
	// ErrNotReady is returned before the first snapshot has been built.
	ErrNotReady = errors.New("analysis not ready")
	// ErrNotFound marks an unknown configured item, such as an event key.
	ErrNotFound = errors.New("not found")
)

func DataErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrData, fmt.Sprintf(format, args...))
}

func InvalidParameterf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}

func ForecastUnavailablef(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForecastUnavailable, fmt.Sprintf(format, args...))
}

// ForecastUnavailable wraps a model failure, keeping the cause in the chain.
func ForecastUnavailable(op string, cause error) error {
	return fmt.Errorf("%w: %s: %w", ErrForecastUnavailable, op, cause)
}
