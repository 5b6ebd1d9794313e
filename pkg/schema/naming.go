package schema

import (
	"strings"
	"unicode"
)

// SnakeCase converts a Go identifier to its snake_case column form.
// Runs of upper-case letters stay together: "UserID" becomes "user_id",
// "HTTPStatus" becomes "http_status".
func SnakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(runes[i-1]) ||
				(i+1 < len(runes) && !unicode.IsUpper(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
