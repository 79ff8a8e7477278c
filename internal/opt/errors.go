package opt

import "fmt"

// ConfigError reports invalid structural parameters. It is always detected
// before any iteration begins, so a failed run is never partially applied.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "config error: " + e.Field + " " + e.Reason
}

func (e *ConfigError) Is(target error) bool {
	_, ok := target.(*ConfigError)
	return ok
}

// EvalError reports a failed objective evaluation. It aborts the whole run;
// skipping or re-drawing the offending member would silently bias the
// population.
type EvalError struct {
	Member int
	Err    error
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("objective evaluation failed for member %d: %v", e.Member, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

func (e *EvalError) Is(target error) bool {
	_, ok := target.(*EvalError)
	return ok
}
