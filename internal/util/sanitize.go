package util

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"commoni-api/pkg/apierror"
)

const MaxLoginIDLength = 50

// reservedLoginIDChars would change the meaning of /users/{id} routes.
const reservedLoginIDChars = `/\?#%`

// ValidateLoginID accepts 1 to 50 printable characters with no whitespace
// and none of the URL path delimiters.
func ValidateLoginID(id string) error {
	if strings.TrimSpace(id) == "" {
		return apierror.BadRequest("user id is required", "id")
	}

	if !utf8.ValidString(id) {
		return apierror.BadRequest("user id is not valid UTF-8", "id")
	}

	if utf8.RuneCountInString(id) > MaxLoginIDLength {
		return apierror.BadRequest("user id is too long", "id")
	}

	if id == "." || id == ".." {
		return apierror.BadRequest("user id cannot be a dot segment", "id")
	}

	for _, char := range id {
		switch {
		case unicode.IsControl(char), isInvisibleUnicode(char):
			return apierror.BadRequest("user id contains invisible characters", "id")
		case unicode.IsSpace(char):
			return apierror.BadRequest("user id cannot contain whitespace", "id")
		case strings.ContainsRune(reservedLoginIDChars, char):
			return apierror.BadRequest("user id contains a reserved character", "id")
		}
	}

	return nil
}

// isInvisibleUnicode reports zero-width and formatting characters that would
// make two visually identical ids distinct.
func isInvisibleUnicode(r rune) bool {
	switch r {
	case
		'\u200B', // Zero-Width Space
		'\u200C', // Zero-Width Non-Joiner
		'\u200D', // Zero-Width Joiner
		'\u200E', // Left-to-Right Mark
		'\u200F', // Right-to-Left Mark
		'\u2060', // Word Joiner
		'\uFEFF', // Zero-Width No-Break Space / BOM
		'\uFFF9', // Interlinear Annotation Anchor
		'\uFFFA', // Interlinear Annotation Separator
		'\uFFFB': // Interlinear Annotation Terminator
		return true
	}

	return unicode.Is(unicode.Cf, r)
}
