package ssl

import "fmt"

// ConfigError represents an SSL configuration error that is fatal to the
// affected role's startup. Callers surface the message to the operator and
// abort that role's launch.
type ConfigError struct {
	Field       string
	Value       interface{}
	Reason      string
	Suggestions []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("ssl configuration error in field '%s': %s", e.Field, e.Reason)
}

func (e *ConfigError) WithSuggestion(suggestion string) *ConfigError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

func NewConfigValidationError(field string, value interface{}, reason string) *ConfigError {
	return &ConfigError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// NewConfigAmbiguityError reports a role section that supplies both a bare
// filename and an explicit path for the same credential. There is no
// documented tie-break, so the ambiguity is handed back to the operator.
func NewConfigAmbiguityError(jksField, pathField string) *ConfigError {
	return &ConfigError{
		Field:  jksField,
		Reason: fmt.Sprintf("both '%s' and '%s' are set for the same credential", jksField, pathField),
	}
}
