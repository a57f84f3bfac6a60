// Package serialize provides CloudFormation-specific serialization utilities.
package serialize

import (
	"unicode"
	"unicode/utf8"
)

// PascalCase upper-cases the first character of s and leaves the rest untouched.
// e.g., "maximumMessageSize" -> "MaximumMessageSize", "test-function" -> "Test-function"
func PascalCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// PascalCaseKeys returns a copy of m with every top-level key passed through PascalCase.
// Nested values are kept as-is since they mirror CloudFormation property shapes already.
func PascalCaseKeys(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for key, val := range m {
		result[PascalCase(key)] = val
	}
	return result
}
