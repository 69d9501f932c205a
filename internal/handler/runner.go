package handler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// RunRequest describes one grading subprocess.
type RunRequest struct {
	Input   string
	Output  string
	Variant string
}

// RunOutput is what the subprocess printed.
type RunOutput struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Runner grades an uploaded file in a separate process.
type Runner interface {
	Run(ctx context.Context, req RunRequest) (RunOutput, error)
}

// ExecRunner runs "<Binary> grade --input X --output Y".
type ExecRunner struct {
	Binary string
	// Args are passed after the grade flags (provider, model, etc.).
	Args []string
}

// NewExecRunner runs the current executable.
func NewExecRunner(args ...string) (*ExecRunner, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("locate executable: %w", err)
	}
	return &ExecRunner{Binary: exe, Args: args}, nil
}

func (e *ExecRunner) Run(ctx context.Context, req RunRequest) (RunOutput, error) {
	args := []string{"grade", "--input", req.Input, "--output", req.Output}
	if req.Variant != "" {
		args = append(args, "--prompt-variant", req.Variant)
	}
	args = append(args, e.Args...)

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, e.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	out := RunOutput{Stdout: stdout.String(), Stderr: stderr.String(), Duration: time.Since(start)}
	if err != nil {
		return out, fmt.Errorf("grading process: %w", err)
	}
	return out, nil
}
