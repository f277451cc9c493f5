package cli

import (
	"encoding/json"
	"os"
)

// envelope is the single structured response shape every field command
// emits, so workers can parse outcomes uniformly.
type envelope struct {
	Status string   `json:"status"` // ok or error
	Data   any      `json:"data,omitempty"`
	Issues []string `json:"issues"`
}

// emitOK prints a success envelope.
func emitOK(data any, issues ...string) error {
	return emit(envelope{Status: "ok", Data: data, Issues: normalizeIssues(issues)})
}

// emitError prints an error envelope on stdout for the calling worker, then
// returns the error so the process exits non-zero.
func emitError(err error, issues ...string) error {
	issues = append([]string{err.Error()}, issues...)
	if emitErr := emit(envelope{Status: "error", Issues: normalizeIssues(issues)}); emitErr != nil {
		return emitErr
	}
	return err
}

func emit(env envelope) error {
	enc := json.NewEncoder(os.Stdout)
	return enc.Encode(env)
}

func normalizeIssues(issues []string) []string {
	if issues == nil {
		return []string{}
	}
	return issues
}
