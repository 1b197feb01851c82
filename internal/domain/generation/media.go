package generation

import (
	"fmt"
	"sort"
	"strings"
)

// mimeTypes maps every accepted image extension to its MIME type.
// The set of keys is the upload allow-set.
var mimeTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// DefaultExtensions returns the full allow-set in sorted order.
func DefaultExtensions() []string {
	exts := make([]string, 0, len(mimeTypes))
	for ext := range mimeTypes {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// MIMEType returns the MIME type for an extension and whether it is known.
func MIMEType(ext string) (string, bool) {
	mime, ok := mimeTypes[strings.ToLower(ext)]
	return mime, ok
}

// Extension returns the lower-cased text after the last dot of filename,
// or "" when there is no dot.
func Extension(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}

// MediaPolicy decides which uploads are accepted.
type MediaPolicy struct {
	allowed map[string]string
}

// NewMediaPolicy builds a policy restricted to exts. An empty list allows
// every known extension. Extensions without a MIME mapping are rejected so
// the allow-set can never drift from the MIME table.
func NewMediaPolicy(exts []string) (*MediaPolicy, error) {
	if len(exts) == 0 {
		exts = DefaultExtensions()
	}

	allowed := make(map[string]string, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		mime, ok := mimeTypes[ext]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownExtension, ext)
		}
		allowed[ext] = mime
	}

	return &MediaPolicy{allowed: allowed}, nil
}

// MIMEFor returns the MIME type for filename's extension. ok is false when
// the extension is not accepted.
func (p *MediaPolicy) MIMEFor(filename string) (string, bool) {
	mime, ok := p.allowed[Extension(filename)]
	return mime, ok
}

// Extensions returns the accepted extensions in sorted order.
func (p *MediaPolicy) Extensions() []string {
	exts := make([]string, 0, len(p.allowed))
	for ext := range p.allowed {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
