package application

import (
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	separatorRegex  = regexp.MustCompile(`[_\-.]+`)
	disallowedRegex = regexp.MustCompile(`[^A-Za-z0-9 ]+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	extensionRegex  = regexp.MustCompile(`\.[^/.]+$`)
)

// BaseName strips any directory and the final extension from a filename.
// Example: "uploads/2024/my_photo.final.jpg" -> "my_photo.final"
// A dotfile such as ".hidden" has no base name.
func BaseName(filename string) string {
	if filename == "" {
		return ""
	}
	filename = strings.ReplaceAll(filename, "\\", "/")
	return extensionRegex.ReplaceAllString(path.Base(filename), "")
}

// DeriveAltText turns an extension-less base name into alt text.
// Diacritics are folded onto their base letter ("café" -> "cafe", "ñ" -> "n"), runs of
// '_', '-' and '.' become a single space, anything other than ASCII letters, digits and
// spaces is dropped, and whitespace is collapsed and trimmed.
// An empty result means no usable text could be derived.
func DeriveAltText(base string) string {
	base = foldAccents(base)
	base = separatorRegex.ReplaceAllString(base, " ")
	base = disallowedRegex.ReplaceAllString(base, "")
	base = whitespaceRegex.ReplaceAllString(base, " ")
	return strings.TrimSpace(base)
}

// AltTextForFilename is DeriveAltText applied to the filename's base name.
func AltTextForFilename(filename string) string {
	return DeriveAltText(BaseName(filename))
}

// foldAccents decomposes s and drops combining marks. On failure s is returned unchanged.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
