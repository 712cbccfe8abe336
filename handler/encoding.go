package handler

import (
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
)

// decodeName implements the filename-encoding fallback ladder from spec
// §6: UTF-8 -> CP932 -> Shift-JIS -> EUC-JP -> CP437->CP932 re-roundtrip,
// first success wins. Grounded on original_source/arc/handler/common_encodings.py.
//
// "Success" means the decoder accepts the bytes without substitution
// characters; since most legacy codepages accept nearly any byte stream,
// UTF-8 validity is checked first (the common case for modern archives)
// before falling through the legacy ladder.
func decodeName(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}

	ladder := []encoding.Encoding{
		japanese.ShiftJIS, // CP932 (superset of Shift-JIS for practical purposes)
		japanese.ShiftJIS,
		japanese.EUCJP,
	}
	for _, enc := range ladder {
		if s, ok := tryDecode(enc, raw); ok {
			return s
		}
	}

	// CP437 -> CP932 re-roundtrip: some tools mis-stamp CP932 bytes as
	// CP437 when writing the archive's central directory; decode as CP437
	// then re-encode/decode through CP932 to recover the intended glyphs.
	if cp437, ok := tryDecode(charmap.CodePage437, raw); ok {
		reencoded, err := charmap.CodePage437.NewEncoder().String(cp437)
		if err == nil {
			if s, ok := tryDecode(japanese.ShiftJIS, []byte(reencoded)); ok {
				return s
			}
		}
	}

	return strictReplace(raw)
}

func tryDecode(enc encoding.Encoding, raw []byte) (string, bool) {
	s, err := enc.NewDecoder().String(string(raw))
	if err != nil {
		return "", false
	}
	if !utf8.ValidString(s) {
		return "", false
	}
	for _, r := range s {
		if r == utf8.RuneError {
			return "", false
		}
	}
	return s, true
}

// strictReplace keeps the raw bytes but swaps each byte of an invalid UTF-8
// sequence for the replacement character, so a name always renders instead of crashing a
// caller on invalid UTF-8.
func strictReplace(raw []byte) string {
	out := make([]rune, 0, len(raw))
	for i := 0; i < len(raw); {
		r, size := utf8.DecodeRune(raw[i:])
		if r == utf8.RuneError && size <= 1 {
			out = append(out, '�')
			i++
			continue
		}
		out = append(out, r)
		i += size
	}
	return string(out)
}
