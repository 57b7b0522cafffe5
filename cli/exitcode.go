package cli

// ExitCoder is implemented by an error that maps to a specific process
// exit code, rather than the default of 1.
type ExitCoder interface {
	error
	ExitCode() int
}

// exitError pairs an error with the exit code its command should
// terminate with.
type exitError struct {
	err  error
	code int
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }
func (e *exitError) ExitCode() int { return e.code }

// withExitCode wraps err, if non-nil, so main can recover its intended
// exit code.
func withExitCode(err error, code int) error {
	if err == nil {
		return nil
	}

	return &exitError{err: err, code: code}
}

// ExitCodeOf returns err's intended exit code: 0 for nil, the code an
// ExitCoder declares, or 1 for any other error.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}

	var coder ExitCoder
	if ok := asExitCoder(err, &coder); ok {
		return coder.ExitCode()
	}

	return 1
}

func asExitCoder(err error, target *ExitCoder) bool {
	for err != nil {
		if coder, ok := err.(ExitCoder); ok {
			*target = coder
			return true
		}

		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}

		err = unwrapper.Unwrap()
	}

	return false
}
