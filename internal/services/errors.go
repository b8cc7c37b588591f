package services

import "fmt"

// FieldError is a client-side input rejection tied to a specific field.
// Payloads that fail this check are never sent to the server.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
