package utils

import (
	"strings"
	"unicode"
)

// Characters that are illegal in filenames on at least one supported
// platform. Forward slashes are kept: they are the remote path separator.
const illegalPathChars = `<>:"|?*`

// SanitizePath strips characters that cannot appear in local file paths:
// platform-illegal punctuation and non-printable runes. Everything else,
// including path separators and spaces, is preserved.
func SanitizePath(path string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(illegalPathChars, r) {
			return -1
		}
		if !unicode.IsPrint(r) {
			return -1
		}
		return r
	}, path)
}
