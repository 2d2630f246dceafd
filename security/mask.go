package security

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode/utf8"
)

// SensitiveHeaders lists the header names whose values are never logged.
var SensitiveHeaders = []string{
	"Authorization",
	"Proxy-Authorization",
	"Cookie",
	"X-Api-Key",
}

// Mask replaces a secret with a marker that only reveals its length.
func Mask(value string) string {
	return fmt.Sprintf("#MASKED:%d#", utf8.RuneCountInString(value))
}

// IsSensitiveHeader reports whether a header value must be masked.
func IsSensitiveHeader(name string) bool {
	for _, h := range SensitiveHeaders {
		if strings.EqualFold(h, name) {
			return true
		}
	}
	return false
}

// MaskHeaders returns a copy of headers safe for logs and dumps.
func MaskHeaders(headers http.Header) map[string]string {
	masked := make(map[string]string, len(headers))
	for name, values := range headers {
		value := strings.Join(values, ",")
		if IsSensitiveHeader(name) {
			value = Mask(value)
		}
		masked[name] = value
	}
	return masked
}

// FormatHeaders renders headers as sorted "Name: value" lines with sensitive
// values masked.
func FormatHeaders(headers http.Header) string {
	masked := MaskHeaders(headers)
	names := make([]string, 0, len(masked))
	for name := range masked {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s: %s\n", name, masked[name])
	}
	return b.String()
}
