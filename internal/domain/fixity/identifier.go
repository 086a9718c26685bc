package fixity

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidateIdentifier checks that v is a textual UUID and returns its
// canonical lower-case hyphenated form. Braced, urn:uuid: and bare hex
// spellings are accepted. Values of any other type fail with
// ErrTypeMismatch and are never coerced.
func ValidateIdentifier(v any) (string, error) {
	raw, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: got %T", ErrTypeMismatch, v)
	}

	parsed, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidIdentifier, raw)
	}
	return parsed.String(), nil
}
