package agent

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/imkarma/loom/internal/config"
)

// CLIRunner spawns an external agent CLI (claude, gemini, codex, etc.) with
// the worker prompt as the final argument.
type CLIRunner struct {
	name string
	cfg  config.Agent
}

// NewCLIRunner creates a runner that spawns CLI processes.
func NewCLIRunner(name string, cfg config.Agent) *CLIRunner {
	return &CLIRunner{name: name, cfg: cfg}
}

func (r *CLIRunner) Name() string { return r.name }

// Dispatch runs the worker process in req.WorkDir and parses its structured
// result. Timeouts, non-zero exits without a result, and unparsable output
// are all returned as errors; the orchestrator treats them as fatal to the
// step.
func (r *CLIRunner) Dispatch(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	prompt, err := BuildPrompt(req)
	if err != nil {
		return nil, fmt.Errorf("build prompt for %s: %w", r.name, err)
	}

	args := r.cfg.EffectiveArgs()
	args = append(args, prompt)

	timeout := time.Duration(r.cfg.DefaultTimeout()) * time.Second
	if req.TimeoutSec > 0 {
		timeout = time.Duration(req.TimeoutSec) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.cfg.Cmd, args...)
	cmd.Dir = req.WorkDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	duration := time.Since(start).Seconds()

	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("worker %s timed out after %ds", r.name, int(timeout.Seconds()))
	}
	if runErr != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = runErr.Error()
		}
		exitCode := -1
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		}
		return nil, fmt.Errorf("worker %s exited with code %d: %s", r.name, exitCode, detail)
	}

	result, err := ParseResult(stdout.String())
	if err != nil {
		return nil, fmt.Errorf("worker %s: %w", r.name, err)
	}
	result.Duration = duration
	return result, nil
}
