package knowledge

import "fmt"

// CategorizationError reports malformed classifier input.
type CategorizationError struct {
	Field string
}

func (e *CategorizationError) Error() string {
	return fmt.Sprintf("knowledge: %s must be a non-empty string", e.Field)
}
