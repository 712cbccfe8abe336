// Package path implements the canonical forward-slash path normalization
// used everywhere above the handler registry (spec §4.1, C1).
//
// Grounded on the teacher's path handling in backend/archive/archive.go
// (path.Dir/path.Base/strings.Trim bookkeeping around archive boundaries)
// and backend/zip/zip.go's fspath.Split usage for "remote:path" forms.
package path

import (
	"strings"

	"github.com/zgock999/SupraView-sub001/arcerr"
)

// Normalize puts p into canonical form: backslashes become slashes, "//"
// runs collapse, "." and ".." segments resolve within the relative portion.
// A path that would climb above its own root fails with arcerr.ErrInvalidPath.
// Embedded NUL bytes are rejected. The result never ends in "/" except a
// bare "/" or a bare drive root such as "C:/".
func Normalize(p string) (string, error) {
	if strings.IndexByte(p, 0) >= 0 {
		return "", arcerr.ErrInvalidPath
	}
	p = strings.ReplaceAll(p, `\`, "/")

	// Preserve a leading drive letter (C:/...) for absolute host paths.
	var drive string
	if len(p) >= 2 && p[1] == ':' && isDriveLetter(p[0]) {
		drive = p[:2]
		p = p[2:]
	}

	leadingSlash := strings.HasPrefix(p, "/")

	segments := strings.Split(p, "/")
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) == 0 {
				return "", arcerr.ErrInvalidPath
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}

	rel := strings.Join(out, "/")
	switch {
	case drive != "":
		return drive + "/" + rel, nil
	case leadingSlash:
		return "/" + rel, nil
	default:
		return rel, nil
	}
}

func isDriveLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// SplitBoundary parses the display-level "base:/internal" form into
// (base, internal). If no ":/" separator is present, internal is "" and
// base is the whole, normalized string.
func SplitBoundary(p string) (base, internal string, err error) {
	idx := strings.Index(p, ":/")
	if idx < 0 {
		base, err = Normalize(p)
		return base, "", err
	}
	base, err = Normalize(p[:idx])
	if err != nil {
		return "", "", err
	}
	internal, err = Normalize(p[idx+2:])
	if err != nil {
		return "", "", err
	}
	return base, internal, nil
}

// Join composes a rel-path child onto a parent rel-path, both already
// canonical, without re-walking "." / "..".
func Join(parent, child string) string {
	if parent == "" {
		return child
	}
	if child == "" {
		return parent
	}
	return parent + "/" + child
}

// Parent returns the rel-path of p's parent directory ("" for a top-level
// entry or the root itself).
func Parent(p string) string {
	idx := strings.LastIndexByte(p, '/')
	if idx < 0 {
		return ""
	}
	return p[:idx]
}

// Base returns the leaf name of a canonical rel-path.
func Base(p string) string {
	idx := strings.LastIndexByte(p, '/')
	if idx < 0 {
		return p
	}
	return p[idx+1:]
}
