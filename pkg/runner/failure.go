package runner

import "fmt"

// Failure describes the first step that broke an ordered run. A failure
// aborts the remaining steps but is never propagated as a Go error from
// Run; the caller inspects it and decides the exit code.
type Failure struct {
	Step string
	Err  error

	// Screenshot is the saved capture path when one was taken.
	// ScreenshotErr records why the capture was skipped or failed;
	// a capture problem never masks the original failure.
	Screenshot    string
	ScreenshotErr error
}

// Error renders the failure with the screenshot location appended, so log
// lines and persisted error messages point at the evidence.
func (f *Failure) Error() string {
	msg := fmt.Sprintf("%s: %v", f.Step, f.Err)
	if f.Screenshot != "" {
		return fmt.Sprintf("%s [SCREENSHOT: %s]", msg, f.Screenshot)
	}
	if f.ScreenshotErr != nil {
		return msg + " (screenshot failed)"
	}
	return msg
}

// Unwrap exposes the step error for errors.Is / errors.As.
func (f *Failure) Unwrap() error {
	return f.Err
}
