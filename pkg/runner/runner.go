// Package runner executes ordered browser test groups: steps named
// test_NN_description run in ascending ordinal order against one shared
// session, a failing step aborts the remainder with a screenshot, and
// outcomes are optionally persisted for the dashboard.
package runner

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"dev/bravebird/ui-harness-go/pkg/browser"
	"dev/bravebird/ui-harness-go/pkg/config"
	"dev/bravebird/ui-harness-go/pkg/models"
	"dev/bravebird/ui-harness-go/pkg/results"
)

// Options selects which ordinals run and how the group is bracketed.
type Options struct {
	// Initial and Through bound the inclusive ordinal range to execute.
	Initial int
	Through int

	// TeardownFirst runs the group teardown before the sequence to clear
	// residue from earlier aborted runs. Its errors are ignored.
	TeardownFirst bool
}

// DefaultOptions runs the whole group with a leading teardown.
func DefaultOptions() Options {
	return Options{Initial: 0, Through: 99, TeardownFirst: true}
}

// Runner drives ordered groups against a shared session.
type Runner struct {
	manager *browser.Manager
	cfg     config.Settings
	store   *results.Store
}

// New creates a runner. The store may be nil; runs then execute without
// persistence.
func New(manager *browser.Manager, cfg config.Settings, store *results.Store) *Runner {
	return &Runner{manager: manager, cfg: cfg, store: store}
}

// Run executes the group's steps whose ordinals fall in [opts.Initial,
// opts.Through], in ascending ordinal order regardless of registration
// order. Setup runs only when the range starts at zero; teardown runs only
// after the full selected range completes. The first failing step aborts
// the remainder and is returned as a Failure rather than propagated; the
// shared session is returned alive either way so the caller can inspect or
// reuse it.
func (r *Runner) Run(ctx context.Context, group *Group, opts Options) (*browser.Session, *Failure) {
	start := time.Now()
	steps := group.selected(opts.Initial, opts.Through)

	run := &models.SuiteRun{
		ID:     uuid.New().String(),
		Suite:  group.Name,
		Domain: r.cfg.DomainName,
	}
	if r.store != nil {
		if err := r.store.CreateSuiteRun(ctx, run); err != nil {
			log.Printf("Warning: could not record run: %v", err)
		}
	}

	if opts.TeardownFirst && group.Teardown != nil {
		if session, err := r.manager.Current(); err != nil {
			log.Printf("Warning: initial teardown skipped: %v", err)
		} else if err := group.Teardown(session); err != nil {
			log.Printf("Warning: initial teardown: %v", err)
		}
	}

	var failure *Failure

	if opts.Initial == 0 && group.Setup != nil {
		failure = r.invoke(ctx, run.ID, -1, "setup", group.Setup)
	}

	// skipFrom is the index of the first step that never ran.
	skipFrom := 0
	if failure == nil {
		for i, step := range steps {
			log.Printf("Running %s", step.Name)
			failure = r.invoke(ctx, run.ID, step.Ordinal, step.Name, HookFunc(step.fn))
			skipFrom = i + 1
			if failure != nil {
				break
			}
		}
	}

	if failure == nil && group.Teardown != nil {
		failure = r.invoke(ctx, run.ID, -1, "teardown", group.Teardown)
	}

	if r.store != nil {
		r.recordSkipped(ctx, run.ID, steps[skipFrom:])
		status, msg := models.StatusSuccess, ""
		if failure != nil {
			status, msg = models.StatusFailed, failure.Error()
		}
		if err := r.store.UpdateSuiteRunStatus(ctx, run.ID, status, msg); err != nil {
			log.Printf("Warning: could not finalize run: %v", err)
		}
	}

	log.Printf("Tests run in %s", time.Since(start))
	return r.manager.Active(), failure
}

// invoke runs one step or hook against the shared session, turning panics
// and errors into a Failure with a best-effort screenshot attached.
func (r *Runner) invoke(ctx context.Context, runID string, ordinal int, name string, fn HookFunc) *Failure {
	stepStart := time.Now()

	session, err := r.manager.Current()
	if err == nil {
		err = call(fn, session)
	}

	var failure *Failure
	if err != nil {
		failure = &Failure{Step: name, Err: err}
		failure.Screenshot, failure.ScreenshotErr = r.capture(session, name)
		log.Printf("FAILED %s: %v", name, failure.Error())
	}

	if r.store != nil && ordinal >= 0 {
		result := &models.StepResult{
			ID:       uuid.New().String(),
			RunID:    runID,
			Ordinal:  ordinal,
			Step:     name,
			Status:   models.StatusSuccess,
			Duration: time.Since(stepStart).Milliseconds(),
		}
		if failure != nil {
			result.Status = models.StatusFailed
			result.ErrorMessage = failure.Error()
			result.ScreenshotPath = failure.Screenshot
		}
		if err := r.store.CreateStepResult(ctx, result); err != nil {
			log.Printf("Warning: could not record step %s: %v", name, err)
		}
	}

	return failure
}

// call shields the runner from panicking steps.
func call(fn HookFunc, session *browser.Session) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return fn(session)
}

// capture saves a PNG of the current viewport under the results directory.
// Returns the saved path, or the reason no screenshot exists.
func (r *Runner) capture(session *browser.Session, step string) (string, error) {
	if !r.cfg.Screenshots {
		return "", fmt.Errorf("screenshots disabled")
	}
	if session == nil {
		return "", fmt.Errorf("no session")
	}

	dir := filepath.Join(r.cfg.ResultsDir, "images")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create screenshot dir: %w", err)
	}

	data, err := session.Driver().Screenshot()
	if err != nil {
		return "", fmt.Errorf("failed to capture screenshot: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_%s.png", step, time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write screenshot: %w", err)
	}
	return path, nil
}

// recordSkipped marks steps that never ran because an earlier one failed.
func (r *Runner) recordSkipped(ctx context.Context, runID string, skipped []Step) {
	for _, step := range skipped {
		result := &models.StepResult{
			ID:      uuid.New().String(),
			RunID:   runID,
			Ordinal: step.Ordinal,
			Step:    step.Name,
			Status:  models.StatusSkipped,
		}
		if err := r.store.CreateStepResult(ctx, result); err != nil {
			log.Printf("Warning: could not record skipped step %s: %v", step.Name, err)
		}
	}
}
