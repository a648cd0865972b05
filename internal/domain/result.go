package domain

// Status describes how complete a component's output is.
type Status string

const (
	StatusOK          Status = "ok"
	StatusDegraded    Status = "degraded"
	StatusUnavailable Status = "unavailable"
)

// Result wraps a component's output so callers can tell partial data from none.
// Value is always usable; for Unavailable results it is the zero/empty value.
type Result[T any] struct {
	Value    T
	Status   Status
	Warnings []string
	Reason   string
}

func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: StatusOK}
}

// Degraded returns an Ok result when there are no warnings.
func Degraded[T any](v T, warnings ...string) Result[T] {
	if len(warnings) == 0 {
		return Ok(v)
	}
	return Result[T]{Value: v, Status: StatusDegraded, Warnings: warnings}
}

func Unavailable[T any](v T, reason string) Result[T] {
	return Result[T]{Value: v, Status: StatusUnavailable, Reason: reason}
}

func (r Result[T]) OK() bool { return r.Status == StatusOK }

// Messages returns the reason (if any) followed by the warnings.
func (r Result[T]) Messages() []string {
	out := make([]string, 0, len(r.Warnings)+1)
	if r.Reason != "" {
		out = append(out, r.Reason)
	}
	return append(out, r.Warnings...)
}
