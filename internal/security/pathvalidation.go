// Package security validates identifiers that end up in file paths.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

const maxNameLen = 128

// ValidateVideoName rejects video identifiers that would escape the
// tracklet or cluster directories once joined into a path.
func ValidateVideoName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("empty video name")
	case len(name) > maxNameLen:
		return fmt.Errorf("video name longer than %d bytes", maxNameLen)
	case name == "." || name == ".." || strings.HasPrefix(name, "."):
		return fmt.Errorf("video name %q may not start with a dot", name)
	case strings.ContainsAny(name, `/\`) || filepath.IsAbs(name):
		return fmt.Errorf("path traversal detected: video name %q contains a separator", name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("video name contains a NUL byte")
	}
	return nil
}

// SanitizeFilename makes a safe file name component from an arbitrary
// string: runs of characters other than ASCII letters, digits, dot,
// underscore and dash become one underscore, leading and trailing dots
// and underscores are trimmed, and the result is capped in length.
func SanitizeFilename(s string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		if b.Len() >= maxNameLen {
			break
		}
		safe := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '_' || r == '-'
		switch {
		case safe:
			b.WriteRune(r)
			lastUnderscore = r == '_'
		case !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
