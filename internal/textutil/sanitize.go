package textutil

import (
	"strings"
	"unicode"
)

// fileNameReplacer maps path separators and shell-hostile characters to safe ones.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes an uploaded file name safe to use as a local path
// component. Separators become dashes, control characters and other unsafe
// characters are dropped, and leading dots are removed so the result is never
// hidden or a relative path element.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = fileNameReplacer.Replace(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	return strings.TrimSpace(strings.TrimLeft(name, "."))
}
