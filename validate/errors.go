package validate

// Kind classifies a validation failure.
type Kind string

const (
	KindEmpty             Kind = "empty"
	KindMalformed         Kind = "malformed"
	KindTooMany           Kind = "too_many"
	KindMissingField      Kind = "missing_field"
	KindInvalidRole       Kind = "invalid_role"
	KindContentType       Kind = "content_type"
	KindContentTooLong    Kind = "content_too_long"
	KindImageMissingField Kind = "image_missing_field"
	KindImageType         Kind = "image_type"
	KindImageEncoding     Kind = "image_encoding"
	KindImageTooLarge     Kind = "image_too_large"
)

// ValidationError describes the first violation found in a message list.
// Index is -1 for list-level violations.
type ValidationError struct {
	Index   int
	Kind    Kind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
