package engine

// Result is the envelope every tool call returns. Exactly one of Results
// and Error is meaningful; OK determines which.
type Result struct {
	OK      bool   `json:"ok"`
	Results any    `json:"results,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OK wraps sanitized results in a success envelope.
func OK(results any) Result {
	return Result{OK: true, Results: results}
}

// Fail wraps an engine fault description in a failure envelope.
func Fail(err error) Result {
	return Result{OK: false, Error: err.Error()}
}
