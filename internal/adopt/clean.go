package adopt

import "strings"

const esc = '\x1b'

// Clean removes ANSI CSI sequences and carriage returns. An ESC not
// followed by '[' is dropped on its own. Applying Clean twice is the same
// as applying it once.
func Clean(s string) string {
	if !strings.ContainsAny(s, "\x1b\r") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case esc:
			if i+1 < len(runes) && runes[i+1] == '[' {
				i++
				for i+1 < len(runes) {
					i++
					if isASCIILetter(runes[i]) {
						break
					}
				}
			}
		case '\r':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// extractPrompt returns the last line whose trimmed form ends with one of
// markers, trimmed and newline terminated, or "" when there is none
func extractPrompt(cleaned string, markers []string) string {
	lines := strings.Split(cleaned, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		for _, m := range markers {
			if m != "" && strings.HasSuffix(line, m) {
				return line + "\n"
			}
		}
	}
	return ""
}
