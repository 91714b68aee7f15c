package validator

// Validator validates structs and returns a descriptive error on failure.
type Validator interface {
	// Validate checks struct tags and returns nil when the data is valid.
	Validate(data any) error
}
