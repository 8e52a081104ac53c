package domain

import (
	"errors"
	"fmt"
)

var (
	ErrConfigurationNotFound = errors.New("configuration not found")
	ErrInvalidReading        = errors.New("invalid reading")
)

type ConfigurationNotFoundError struct {
	Name string
}

func (e *ConfigurationNotFoundError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Name)
}

func (e *ConfigurationNotFoundError) Is(target error) bool {
	return target == ErrConfigurationNotFound
}

type InvalidReadingError struct {
	Field string
	Value float64
}

func (e *InvalidReadingError) Error() string {
	return fmt.Sprintf("invalid input values: %s = %v", e.Field, e.Value)
}

func (e *InvalidReadingError) Is(target error) bool {
	return target == ErrInvalidReading
}
