package agent

import (
	"errors"
	"testing"
)

func TestParseResult_FencedJSON(t *testing.T) {
	output := "I finished the work.\n\n```json\n" +
		`{"status": "done", "commit": "abc123", "summary": "parser wired", "files_touched": ["a.go"], "expected_files": ["a.go"]}` +
		"\n```\n"

	r, err := ParseResult(output)
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	if r.Status != StatusDone {
		t.Errorf("status = %q", r.Status)
	}
	if r.CommitID != "abc123" {
		t.Errorf("commit = %q", r.CommitID)
	}
	if r.Drift != DriftNone {
		t.Errorf("drift = %q, want none", r.Drift)
	}
}

func TestParseResult_LastBlockWins(t *testing.T) {
	// A worker that echoes the format instructions before its real result.
	output := "The format is:\n```json\n{\"status\": \"done\", \"summary\": \"example\"}\n```\n" +
		"Done now.\n```json\n{\"status\": \"done\", \"summary\": \"real result\"}\n```\n"

	r, err := ParseResult(output)
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	if r.Summary != "real result" {
		t.Errorf("summary = %q, want last block", r.Summary)
	}
}

func TestParseResult_SkipsMalformedBlock(t *testing.T) {
	output := "```json\n{\"status\": \"done\", \"summary\": \"good\"}\n```\n" +
		"```json\n{not json}\n```\n"

	r, err := ParseResult(output)
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	if r.Summary != "good" {
		t.Errorf("summary = %q", r.Summary)
	}
}

func TestParseResult_VerifierVerdict(t *testing.T) {
	output := "```json\n{\"status\": \"done\", \"verdict\": \"revise\", \"summary\": \"missing tests\"}\n```"

	r, err := ParseResult(output)
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	if r.Verdict != VerdictRevise {
		t.Errorf("verdict = %q", r.Verdict)
	}
}

func TestParseResult_SentinelFallback(t *testing.T) {
	output := "some narration\nSTATUS: done\nVERDICT: APPROVE\nCOMMIT: def456\nSUMMARY: all checks pass\n"

	r, err := ParseResult(output)
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	if r.Status != StatusDone {
		t.Errorf("status = %q", r.Status)
	}
	if r.Verdict != VerdictApprove {
		t.Errorf("verdict = %q", r.Verdict)
	}
	if r.CommitID != "def456" {
		t.Errorf("commit = %q", r.CommitID)
	}
	if r.Summary != "all checks pass" {
		t.Errorf("summary = %q", r.Summary)
	}
}

func TestParseResult_BlockedSentinel(t *testing.T) {
	output := "BLOCKED: which database should the cache use?\n"

	r, err := ParseResult(output)
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	if r.Status != StatusBlocked {
		t.Errorf("status = %q", r.Status)
	}
	if r.Blocked != "which database should the cache use?" {
		t.Errorf("blocked = %q", r.Blocked)
	}
}

func TestParseResult_NoResult(t *testing.T) {
	_, err := ParseResult("just prose, no structured output at all")
	if !errors.Is(err, ErrNoResult) {
		t.Fatalf("err = %v, want ErrNoResult", err)
	}
}

func TestParseResult_DriftFilledFromFileLists(t *testing.T) {
	output := "```json\n" +
		`{"status": "done", "expected_files": ["a.go"], "files_touched": ["a.go", "b.go", "c.go", "d.go"]}` +
		"\n```"

	r, err := ParseResult(output)
	if err != nil {
		t.Fatalf("ParseResult: %v", err)
	}
	if r.Drift != DriftModerate {
		t.Errorf("drift = %q, want moderate", r.Drift)
	}
}

func TestClassifyDrift(t *testing.T) {
	expected := []string{"a.go", "b.go"}

	tests := []struct {
		name    string
		touched []string
		want    DriftLevel
	}{
		{"exact match", []string{"a.go", "b.go"}, DriftNone},
		{"subset", []string{"a.go"}, DriftNone},
		{"one extra", []string{"a.go", "x.go"}, DriftMinor},
		{"two extra", []string{"x.go", "y.go"}, DriftMinor},
		{"three extra", []string{"x.go", "y.go", "z.go"}, DriftModerate},
		{"five extra", []string{"v.go", "w.go", "x.go", "y.go", "z.go"}, DriftModerate},
		{"six extra", []string{"u.go", "v.go", "w.go", "x.go", "y.go", "z.go"}, DriftMajor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyDrift(expected, tt.touched); got != tt.want {
				t.Errorf("ClassifyDrift(%v) = %q, want %q", tt.touched, got, tt.want)
			}
		})
	}
}
