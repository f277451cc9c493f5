// Package beadstore is the sole gateway to the external bead store. Every
// read and write goes through the bd CLI; nothing else in loom shells out to
// it. Writes that might exceed the process argument-length ceiling fall back
// to a temp file transparently.
package beadstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/imkarma/loom/internal/bead"
)

// Separator delimits appended content inside a bead field. Fixed so
// downstream parsing can reliably split accumulated sections.
const Separator = "\n\n---\n\n"

// fieldFlags maps protocol fields to their bd CLI flag names.
var fieldFlags = map[bead.Field]string{
	bead.FieldDescription: "description",
	bead.FieldAcceptance:  "acceptance",
	bead.FieldDesign:      "design",
	bead.FieldNotes:       "notes",
}

// Client wraps the bd CLI.
type Client struct {
	binary    string
	threshold int
}

// Option configures a Client.
type Option func(*Client)

// WithBinary overrides the bd executable name or path.
func WithBinary(bin string) Option {
	return func(c *Client) { c.binary = bin }
}

// WithOverflowThreshold overrides the inline-argument size limit. Tests use
// this to hit the temp-file path with small payloads.
func WithOverflowThreshold(n int) Option {
	return func(c *Client) { c.threshold = n }
}

// New creates a Client. Fails with ErrStoreUnavailable if the bd CLI cannot
// be found.
func New(opts ...Option) (*Client, error) {
	c := &Client{binary: "bd", threshold: DefaultOverflowThreshold}
	for _, opt := range opts {
		opt(c)
	}
	if _, err := exec.LookPath(c.binary); err != nil {
		return nil, fmt.Errorf("%w: %q not found in PATH", ErrStoreUnavailable, c.binary)
	}
	return c, nil
}

// CreateSpec holds the initial field content for a new bead. Empty fields
// are omitted from the create call.
type CreateSpec struct {
	Title       string
	Description string
	Acceptance  string
	Design      string
	Notes       string
}

// Create makes a new bead and returns its store-assigned id. Idempotency is
// the caller's responsibility; check for an existing bead first.
func (c *Client) Create(spec CreateSpec, workingDir string) (string, error) {
	args := []string{"create", "--title", spec.Title, "--json"}

	contents := []struct {
		field   bead.Field
		content string
	}{
		{bead.FieldDescription, spec.Description},
		{bead.FieldAcceptance, spec.Acceptance},
		{bead.FieldDesign, spec.Design},
		{bead.FieldNotes, spec.Notes},
	}
	var cleanups []func()
	defer func() {
		for _, fn := range cleanups {
			fn()
		}
	}()
	for _, fc := range contents {
		if fc.content == "" {
			continue
		}
		extra, cleanup, err := c.contentArgs(fieldFlags[fc.field], fc.content)
		if err != nil {
			return "", &CommandError{Op: "create", Detail: err.Error()}
		}
		cleanups = append(cleanups, cleanup)
		args = append(args, extra...)
	}

	out, err := c.run(workingDir, args...)
	if err != nil {
		return "", wrapRunError("create", "", err)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(out, &created); err != nil || created.ID == "" {
		return "", &CommandError{Op: "create", Detail: "unparsable create response: " + strings.TrimSpace(string(out))}
	}
	return created.ID, nil
}

// Show fetches the full bead.
func (c *Client) Show(id, workingDir string) (*bead.Bead, error) {
	out, err := c.run(workingDir, "show", id, "--json")
	if err != nil {
		return nil, wrapRunError("show", id, err)
	}

	var b bead.Bead
	if err := json.Unmarshal(out, &b); err != nil {
		return nil, &CommandError{Op: "show", ID: id, Detail: "unparsable show response: " + err.Error()}
	}
	return &b, nil
}

// UpdateField overwrites the named field.
func (c *Client) UpdateField(id string, field bead.Field, content, workingDir string) error {
	flag, ok := fieldFlags[field]
	if !ok {
		return &CommandError{Op: "update", ID: id, Detail: fmt.Sprintf("field %q is not writable", field)}
	}

	extra, cleanup, err := c.contentArgs(flag, content)
	if err != nil {
		return &CommandError{Op: "update", ID: id, Detail: err.Error()}
	}
	defer cleanup()

	args := append([]string{"update", id}, extra...)
	if _, err := c.run(workingDir, args...); err != nil {
		return wrapRunError("update", id, err)
	}
	return nil
}

// ReadModifyWrite fetches the current field value, applies transform, and
// writes the result back. Not atomic against an out-of-band writer; the
// orchestrator's sequential dispatch is the only concurrency control.
func (c *Client) ReadModifyWrite(id string, field bead.Field, workingDir string, transform func(old string) string) error {
	b, err := c.Show(id, workingDir)
	if err != nil {
		return err
	}
	return c.UpdateField(id, field, transform(b.FieldValue(field)), workingDir)
}

// AppendField appends content below the separator. The separator is applied
// unconditionally, empty base included, so splitting on it always yields one
// section per append plus the base.
func (c *Client) AppendField(id string, field bead.Field, content, workingDir string) error {
	return c.ReadModifyWrite(id, field, workingDir, func(old string) string {
		return old + Separator + content
	})
}

// Close sets status=closed with the given reason. Closing an already-closed
// bead still records the reason (last write wins) and returns
// ErrAlreadyClosed so callers can downgrade it to a warning.
func (c *Client) Close(id, reason, workingDir string) error {
	alreadyClosed := false
	if b, err := c.Show(id, workingDir); err != nil {
		return err
	} else if b.Status == bead.StatusClosed {
		alreadyClosed = true
	}

	if _, err := c.run(workingDir, "close", id, "--reason", reason); err != nil {
		return wrapRunError("close", id, err)
	}
	if alreadyClosed {
		return fmt.Errorf("%w: %s", ErrAlreadyClosed, id)
	}
	return nil
}

// AddDependency records that `id` depends on `dependsOn`.
func (c *Client) AddDependency(id, dependsOn, workingDir string) error {
	if _, err := c.run(workingDir, "dep", "add", id, dependsOn); err != nil {
		return wrapRunError("dep add", id, err)
	}
	return nil
}

// runError carries the raw outcome of a bd invocation for classification.
type runError struct {
	stderr   string
	exitCode int
	err      error
}

func (e *runError) Error() string { return e.err.Error() }

// run executes bd with the given args. When workingDir is non-empty the
// command runs with it as its current directory so directory-relative store
// discovery works from isolated checkouts.
func (c *Client) run(workingDir string, args ...string) ([]byte, error) {
	cmd := exec.Command(c.binary, args...)
	if workingDir != "" {
		cmd.Dir = workingDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, &runError{err: fmt.Errorf("%w: %v", ErrStoreUnavailable, err)}
		}
		code := -1
		if exitErr, ok := err.(*exec.ExitError); ok {
			code = exitErr.ExitCode()
		}
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, &runError{stderr: detail, exitCode: code, err: fmt.Errorf("exit %d: %s", code, detail)}
	}
	return stdout.Bytes(), nil
}

// wrapRunError classifies a bd failure into the error taxonomy.
func wrapRunError(op, id string, err error) error {
	re, ok := err.(*runError)
	if !ok {
		return err
	}
	if errors.Is(re.err, ErrStoreUnavailable) {
		return re.err
	}
	lower := strings.ToLower(re.stderr)
	if strings.Contains(lower, "not found") || strings.Contains(lower, "no such") {
		return fmt.Errorf("%w: %s (%s)", ErrNotFound, id, op)
	}
	return &CommandError{Op: op, ID: id, Detail: re.stderr}
}
