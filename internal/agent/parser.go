package agent

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoResult means the worker output contained no parsable result block.
var ErrNoResult = errors.New("no structured result in worker output")

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(\\{.*?\\})\\s*```")

// ParseResult extracts the structured result from worker output. The last
// fenced json block wins, so a worker that echoes the format instructions
// still parses correctly. Falls back to sentinel-line parsing (STATUS:,
// VERDICT:, BLOCKED:) for workers that cannot emit fenced blocks.
func ParseResult(output string) (*Result, error) {
	matches := fencedJSON.FindAllStringSubmatch(output, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		var r Result
		if err := json.Unmarshal([]byte(matches[i][1]), &r); err != nil {
			continue
		}
		if r.Status == "" {
			continue
		}
		normalize(&r)
		return &r, nil
	}

	if r, ok := parseSentinels(output); ok {
		return r, nil
	}
	return nil, ErrNoResult
}

// parseSentinels handles the line-oriented fallback format.
func parseSentinels(output string) (*Result, bool) {
	r := &Result{}
	found := false

	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)

		switch {
		case strings.HasPrefix(upper, "STATUS:"):
			r.Status = Status(strings.ToLower(strings.TrimSpace(trimmed[7:])))
			found = true
		case strings.HasPrefix(upper, "VERDICT:"):
			v := strings.ToUpper(strings.TrimSpace(trimmed[8:]))
			switch {
			case strings.Contains(v, "APPROVE"):
				r.Verdict = VerdictApprove
			case strings.Contains(v, "REVISE"):
				r.Verdict = VerdictRevise
			case strings.Contains(v, "ESCALATE"):
				r.Verdict = VerdictEscalate
			}
			found = true
		case strings.HasPrefix(upper, "BLOCKED:"):
			r.Blocked = strings.TrimSpace(trimmed[8:])
			r.Status = StatusBlocked
			found = true
		case strings.HasPrefix(upper, "SUMMARY:"):
			r.Summary = strings.TrimSpace(trimmed[8:])
		case strings.HasPrefix(upper, "COMMIT:"):
			r.CommitID = strings.TrimSpace(trimmed[7:])
		}
	}

	if !found {
		return nil, false
	}
	if r.Status == "" {
		r.Status = StatusDone
	}
	normalize(r)
	return r, true
}

// normalize fills the drift level from the file lists when the worker did
// not classify it itself.
func normalize(r *Result) {
	if r.Drift == "" && len(r.FilesTouched) > 0 {
		r.Drift = ClassifyDrift(r.ExpectedFiles, r.FilesTouched)
	}
	if r.Drift == "" {
		r.Drift = DriftNone
	}
}

// ClassifyDrift applies the fixed drift rule: count files touched outside
// the expected set. 0 = none, 1-2 = minor, 3-5 = moderate, >5 = major.
func ClassifyDrift(expected, touched []string) DriftLevel {
	want := make(map[string]bool, len(expected))
	for _, f := range expected {
		want[f] = true
	}

	unexpected := 0
	for _, f := range touched {
		if !want[f] {
			unexpected++
		}
	}

	switch {
	case unexpected == 0:
		return DriftNone
	case unexpected <= 2:
		return DriftMinor
	case unexpected <= 5:
		return DriftModerate
	default:
		return DriftMajor
	}
}
