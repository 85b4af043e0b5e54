package lifecycle

import (
	"fmt"
)

// PromotionIOError is a failure inside the promotion critical section.
// It is the one error class this package never swallows: the manager
// rolls back to the pre-promotion state where possible and surfaces the
// error to the operator.
type PromotionIOError struct {
	Op         string // which step failed: save, backup, install
	Path       string
	RolledBack bool
	Err        error
}

func (e *PromotionIOError) Error() string {
	if e.RolledBack {
		return fmt.Sprintf("promotion %s failed on %s (rolled back): %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("promotion %s failed on %s: %v", e.Op, e.Path, e.Err)
}

func (e *PromotionIOError) Unwrap() error { return e.Err }
