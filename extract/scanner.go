package extract

import (
	"regexp"
	"strings"
)

var includeRe = regexp.MustCompile(`^#\s*include\s+"([^"]+)"`)

// stripComments removes // and /* */ comments, preserving everything
// else byte for byte.
func stripComments(src string) string {
	var b strings.Builder
	b.Grow(len(src))

	for i := 0; i < len(src); {
		if src[i] == '/' && i+1 < len(src) {
			switch src[i+1] {
			case '/':
				for i < len(src) && src[i] != '\n' {
					i++
				}
				continue
			case '*':
				i += 2
				for i+1 < len(src) && !(src[i] == '*' && src[i+1] == '/') {
					i++
				}
				i += 2
				b.WriteByte(' ')
				continue
			}
		}
		b.WriteByte(src[i])
		i++
	}
	return b.String()
}

// scanSource walks a comment-stripped header in textual order, reporting
// local includes as they appear and each top-level semicolon-terminated
// statement. Brace bodies are kept inside their statement so enum
// typedefs survive; extern "C" guards are dropped.
func scanSource(src string, onInclude func(string) error, onStmt func(string) error) error {
	src = stripComments(src)
	src = strings.ReplaceAll(src, `extern "C" {`, "")
	src = strings.ReplaceAll(src, `extern "C"`, "")

	var pending strings.Builder
	depth := 0

	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			if m := includeRe.FindStringSubmatch(trimmed); m != nil {
				if err := onInclude(m[1]); err != nil {
					return err
				}
			}
			continue
		}

		for i := 0; i < len(line); i++ {
			c := line[i]
			switch c {
			case '{':
				depth++
			case '}':
				if depth == 0 {
					// Stray close from a dropped guard.
					continue
				}
				depth--
			case ';':
				if depth == 0 {
					stmt := strings.TrimSpace(pending.String())
					pending.Reset()
					if stmt != "" {
						if err := onStmt(collapseSpace(stmt)); err != nil {
							return err
						}
					}
					continue
				}
			}
			pending.WriteByte(c)
		}
		pending.WriteByte(' ')
	}
	return nil
}

var spaceRe = regexp.MustCompile(`\s+`)

func collapseSpace(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
