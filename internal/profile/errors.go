package profile

import "fmt"

// ConfigurationInvalidError reports the first constraint a set of profile
// parameters violates. No profile is produced when it is returned.
type ConfigurationInvalidError struct {
	Field      string
	Constraint string
}

func (e *ConfigurationInvalidError) Error() string {
	return fmt.Sprintf("profile: invalid configuration: %s %s", e.Field, e.Constraint)
}
