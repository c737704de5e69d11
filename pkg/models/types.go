package models

import "time"

// RunStatus tracks the lifecycle of a suite run or a single step.
type RunStatus string

const (
	StatusRunning RunStatus = "running"
	StatusSuccess RunStatus = "success"
	StatusFailed  RunStatus = "failed"
	StatusSkipped RunStatus = "skipped"
)

// Terminal reports whether the status is final.
func (s RunStatus) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}

// SuiteRun is one execution of an ordered suite against a target domain.
type SuiteRun struct {
	ID           string     `json:"id"`
	Suite        string     `json:"suite"`
	Domain       string     `json:"domain"`
	Status       RunStatus  `json:"status"`
	StartedAt    time.Time  `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`

	// StepResults is populated by the API layer when serving a run.
	StepResults []StepResult `json:"step_results,omitempty"`
}

// StepResult records the outcome of one ordered step.
type StepResult struct {
	ID             string    `json:"id"`
	RunID          string    `json:"run_id"`
	Ordinal        int       `json:"ordinal"`
	Step           string    `json:"step"`
	Status         RunStatus `json:"status"`
	Duration       int64     `json:"duration_ms"`
	ScreenshotPath string    `json:"screenshot_path,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	ExecutedAt     time.Time `json:"executed_at"`
}

// WSMessage is the envelope pushed over the live run stream.
type WSMessage struct {
	Type    string                 `json:"type"`
	Payload map[string]interface{} `json:"payload"`
}
