package generation

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SanitizeFilename reduces a client-supplied filename to a safe basename.
//
// Unicode is folded to ASCII, path separators become word breaks, runs of
// whitespace become a single underscore, and anything outside [A-Za-z0-9_.-]
// is dropped. Leading and trailing dots and underscores are trimmed, so the
// result never contains a path component. The result may be empty.
func SanitizeFilename(name string) string {
	name = norm.NFKD.String(name)

	var ascii strings.Builder
	ascii.Grow(len(name))
	for _, r := range name {
		if r > unicode.MaxASCII {
			continue
		}
		if r == '/' || r == '\\' {
			r = ' '
		}
		ascii.WriteRune(r)
	}

	joined := strings.Join(strings.Fields(ascii.String()), "_")

	var out strings.Builder
	out.Grow(len(joined))
	for _, r := range joined {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out.WriteRune(r)
		case r == '_', r == '.', r == '-':
			out.WriteRune(r)
		}
	}

	return strings.Trim(out.String(), "._")
}
