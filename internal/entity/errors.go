package entity

import "errors"

// Flat error kinds shared across the server. Packages wrap these with
// fmt.Errorf("...: %w", ErrX) to add context; callers test with errors.Is.
var (
	ErrFieldTypeConflict = errors.New("entity: field type conflict")
	ErrSerializerMissing = errors.New("entity: no serializer registered for kind")
	ErrInvalidField      = errors.New("entity: invalid field")
	ErrUnknownField      = errors.New("entity: unknown field")
)
