package diff

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	// MaxLines bounds the rendered diff; driver descriptions can run to thousands of lines.
	MaxLines        = 500
	truncateMessage = "... (diff truncated) ..."
)

// Unified renders a line-oriented unified diff between two driver descriptions.
// It returns an empty string when the content is identical.
func Unified(before, after []byte, beforeLabel, afterLabel string) string {
	if bytes.Equal(before, after) {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(before), string(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- %s\n", beforeLabel)
	fmt.Fprintf(&buf, "+++ %s\n", afterLabel)
	fmt.Fprintf(&buf, "@@ -1,%d +1,%d @@\n", countLines(before), countLines(after))

	written := 3
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}

		for _, line := range splitLines(d.Text) {
			if written >= MaxLines {
				buf.WriteString(truncateMessage)
				buf.WriteString("\n")
				return buf.String()
			}
			buf.WriteString(prefix)
			buf.WriteString(line)
			buf.WriteString("\n")
			written++
		}
	}

	return buf.String()
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

func countLines(content []byte) int {
	return len(splitLines(string(content)))
}
