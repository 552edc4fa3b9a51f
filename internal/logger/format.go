package logger

import "strings"

// stripAnsiCodes removes terminal colour escape sequences (\x1b[...m) from a
// string before it reaches a slog.Attr value: structured log sinks (the file
// handler, the JSON handler) have no use for colour codes meant for a tty.
func stripAnsiCodes(s string) string {
	var out strings.Builder
	out.Grow(len(s))

	inEscape := false
	for i := 0; i < len(s); i++ {
		c := s[i]

		if inEscape {
			if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
				inEscape = false
			}
			continue
		}

		if c == '\x1b' && i+1 < len(s) && s[i+1] == '[' {
			inEscape = true
			i++ // consume the '['
			continue
		}

		out.WriteByte(c)
	}

	return out.String()
}
