package service

import "errors"

var (
	// ErrNotFound is returned when a referenced document does not exist
	ErrNotFound = errors.New("document not found")

	// ErrInvalidInput is returned when a creation payload fails validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrInsufficientStock is returned when a transfer asks for more than a
	// source asset's available (unreserved) quantity
	ErrInsufficientStock = errors.New("insufficient available quantity")
)
