package emr

import "fmt"

// BootstrapStateError reports a bootstrap step that cannot run, either
// because it was attempted out of order or because the persistent UI is
// not in the state the step requires.
type BootstrapStateError struct {
	Step   string
	State  string
	Reason string
}

func (e *BootstrapStateError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot %s in bootstrap state %s: %s", e.Step, e.State, e.Reason)
	}
	return fmt.Sprintf("cannot %s in bootstrap state %s", e.Step, e.State)
}
