package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"

	"github.com/tldr-it-stepankutaj/releasekit/internal/app"
)

// Step is a single stage of a release pipeline.
type Step struct {
	ID      string
	Name    string
	Network bool
	Run     func(ctx context.Context) error
}

// StepResult holds the result of a step execution.
type StepResult struct {
	StepID    string        `json:"step_id"`
	StepName  string        `json:"step_name"`
	Status    string        `json:"status"` // pending, running, completed, failed
	StartTime time.Time     `json:"start_time,omitempty"`
	EndTime   time.Time     `json:"end_time,omitempty"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Report represents a pipeline execution report.
type Report struct {
	Pipeline       string        `json:"pipeline"`
	StartTime      time.Time     `json:"start_time"`
	EndTime        time.Time     `json:"end_time"`
	Duration       time.Duration `json:"duration"`
	Status         string        `json:"status"` // completed, failed
	TotalSteps     int           `json:"total_steps"`
	CompletedSteps int           `json:"completed_steps"`
	FailedStep     string        `json:"failed_step,omitempty"`
	Steps          []*StepResult `json:"steps"`
}

// Execute runs the steps strictly in order. The first failing step aborts
// the run; remaining steps stay pending. There are no retries and no
// rollback of earlier steps.
func Execute(appCtx app.Context, name string, steps []Step) (*Report, error) {
	report := &Report{
		Pipeline:   name,
		StartTime:  time.Now(),
		TotalSteps: len(steps),
		Status:     "completed",
	}
	for _, step := range steps {
		report.Steps = append(report.Steps, &StepResult{
			StepID:   step.ID,
			StepName: step.Name,
			Status:   "pending",
		})
	}

	fmt.Printf("\n╔══════════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║  Pipeline: %-50s║\n", name)
	fmt.Printf("║  Steps: %-52d║\n", len(steps))
	fmt.Printf("╚══════════════════════════════════════════════════════════════╝\n\n")

	var failure error
	for i, step := range steps {
		result := report.Steps[i]
		executeStep(appCtx.Ctx, step, result)
		if result.Status == "failed" {
			report.Status = "failed"
			report.FailedStep = step.ID
			failure = fmt.Errorf("step %s failed: %s", step.ID, result.Error)
			break
		}
		report.CompletedSteps++
	}

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)

	timestamp := appCtx.Now.Format("20060102-150405")
	reportPath := appCtx.Workspace.Path("reports", fmt.Sprintf("%s-%s.json", sanitizeFilename(name), timestamp))
	if err := saveReport(report, reportPath); err != nil {
		fmt.Printf("[!] Failed to save report: %v\n", err)
	}

	return report, failure
}

func executeStep(ctx context.Context, step Step, result *StepResult) {
	result.Status = "running"
	result.StartTime = time.Now()

	fmt.Printf("┌─ Step: %s (%s)\n", step.Name, step.ID)

	var spin *spinner.Spinner
	if step.Network {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		spin.Prefix = "│  "
		spin.Suffix = " working..."
		spin.Start()
	} else {
		fmt.Printf("│  Status: Running...\n")
	}

	err := step.Run(ctx)

	if spin != nil {
		spin.Stop()
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	if err != nil {
		result.Status = "failed"
		result.Error = err.Error()
		fmt.Printf("│  Status: Failed - %s\n", err)
	} else {
		result.Status = "completed"
		fmt.Printf("│  Status: Completed (duration: %s)\n", result.Duration.Round(time.Millisecond))
	}

	fmt.Printf("└─────────────────────────────────────────\n\n")
}

func saveReport(report *Report, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}
	return w.Flush()
}

func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(" ", "-", "/", "-", "\\", "-", ":", "-")
	return strings.ToLower(replacer.Replace(name))
}
