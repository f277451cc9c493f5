package beadstore

import (
	"fmt"
	"os"
)

// DefaultOverflowThreshold is the encoded byte length above which field
// content is passed via temporary file instead of an inline argument.
// 64 KiB leaves a large margin under common process argument-length
// ceilings (~256 KiB).
const DefaultOverflowThreshold = 64 * 1024

// contentArgs builds the argument pair for passing field content to the bd
// CLI. Content at or below the threshold is passed inline as "--<flag>".
// Larger content is written to a temp file and passed as "--<flag>-file";
// the returned cleanup removes the file and must be called after the command
// completes, on error paths too.
func (c *Client) contentArgs(flag, content string) (args []string, cleanup func(), err error) {
	if len(content) <= c.threshold {
		return []string{"--" + flag, content}, func() {}, nil
	}

	f, err := os.CreateTemp("", "loom-"+flag+"-*.md")
	if err != nil {
		return nil, nil, fmt.Errorf("create overflow temp file: %w", err)
	}
	path := f.Name()
	cleanup = func() { os.Remove(path) }

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		cleanup()
		return nil, nil, fmt.Errorf("write overflow temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("close overflow temp file: %w", err)
	}

	return []string{"--" + flag + "-file", path}, cleanup, nil
}
