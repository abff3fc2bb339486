// Package common defines shared constants and sentinel errors used across
// the CuponCode client. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrorNotFound = errors.New("not found")
)
