package app

import (
	"fmt"
	"strings"
)

// FailedError reports runs whose checks or expectations failed. The
// findings themselves have already been printed.
type FailedError struct {
	Runs []string
}

func (e *FailedError) Error() string {
	if len(e.Runs) == 1 {
		return fmt.Sprintf("run %s failed", e.Runs[0])
	}
	return fmt.Sprintf("%d runs failed: %s", len(e.Runs), strings.Join(e.Runs, ", "))
}
