package exitcode

const (
	Success         = 0
	UsageError      = 1
	ValidationError = 2
	DBConnError     = 3
	LoadError       = 4
	EvaluateError   = 5
	// ManualReview means every encounter was processed but at least one needs
	// a human coder before submission.
	ManualReview = 6
)
