package schema

import "errors"

// Error kinds surfaced by the binding core. Callers match them with errors.Is;
// concrete failures wrap one of these with fmt.Errorf("...: %w", ...).
var (
	ErrNotFound          = errors.New("not found")
	ErrSchemaUnavailable = errors.New("schema unavailable")
	ErrParseFailure      = errors.New("template parse failure")
	ErrValidation        = errors.New("validation failure")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrPersistence       = errors.New("persistence failure")
)

// Kind returns the error kind wrapped by err, or nil when err carries none.
func Kind(err error) error {
	for _, kind := range []error{
		ErrNotFound,
		ErrSchemaUnavailable,
		ErrParseFailure,
		ErrValidation,
		ErrUnsupportedFormat,
		ErrPersistence,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}

	return nil
}
