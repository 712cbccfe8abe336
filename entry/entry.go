// Package entry holds the data model shared by every layer above the
// handler registry: the entry type tag and the finalized entry record.
package entry

import "time"

// Type is the tagged variant classifying a path.
type Type uint8

const (
	// Directory is a container of other entries.
	Directory Type = iota
	// File is a plain, non-archive leaf.
	File
	// Archive is a File whose extension is claimed by a registered handler.
	Archive
	// Other is anything the classifier could not place (symlinks, devices, ...).
	Other
)

func (t Type) String() string {
	switch t {
	case Directory:
		return "Directory"
	case File:
		return "File"
	case Archive:
		return "Archive"
	default:
		return "Other"
	}
}

// Info is the immutable-after-finalize record for one cache entry.
//
// RelPath is forward-slash, has no leading slash, and is "" for the root
// itself. NameInArc is handler-internal and opaque to everything above the
// handler package.
type Info struct {
	Name      string
	RelPath   string
	AbsPath   string
	Type      Type
	Size      int64
	ModTime   *time.Time
	NameInArc string
}

// IsImage reports whether Name's extension is one of the registered image
// extensions. The canonical set lives in decoder.Extensions; this helper
// takes it as a parameter so that entry does not import decoder (decoder
// depends on nothing in this package, but entrycache/browser need this check
// without pulling in the decoder package's reference implementations).
func (i *Info) IsImage(exts map[string]bool) bool {
	if i.Type != File && i.Type != Other {
		return false
	}
	return exts[extLower(i.Name)]
}

func extLower(name string) string {
	dot := -1
	for j := len(name) - 1; j >= 0; j-- {
		if name[j] == '.' {
			dot = j
			break
		}
		if name[j] == '/' {
			break
		}
	}
	if dot < 0 {
		return ""
	}
	out := make([]byte, len(name)-dot-1)
	for k, c := range []byte(name[dot+1:]) {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[k] = c
	}
	return string(out)
}
