package quantum

import "fmt"

// ConfigError reports an invalid register configuration, detected before any
// gate is applied.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "quantum config error: " + e.Field + " " + e.Reason
}

func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}

// IndexError reports a gate or measurement addressed to a non-existent qubit.
type IndexError struct {
	Index int
	Size  int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("qubit index %d out of range [0, %d)", e.Index, e.Size)
}

func (e *IndexError) Is(target error) bool {
	_, ok := target.(*IndexError)
	return ok
}
