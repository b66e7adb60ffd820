// Package common defines sentinel errors shared by repositories, services
// and the HTTP layer of FlowRev. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorValidation = errors.New("validation error")

	// Upload errors.
	ErrorEmptyFile = errors.New("empty file")
)
