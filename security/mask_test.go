package security

import (
	"net/http"
	"strings"
	"testing"
)

func TestMask(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "#MASKED:0#"},
		{"Bearer abc", "#MASKED:10#"},
		{"päss", "#MASKED:4#"},
	}
	for _, tc := range tests {
		if got := Mask(tc.in); got != tc.want {
			t.Errorf("Mask(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestMaskHeaders(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer abc")
	h.Set("Accept", "application/json")

	masked := MaskHeaders(h)
	if masked["Authorization"] != "#MASKED:10#" {
		t.Errorf("expected masked authorization, got %q", masked["Authorization"])
	}
	if masked["Accept"] != "application/json" {
		t.Errorf("expected plain accept, got %q", masked["Accept"])
	}
	if h.Get("Authorization") != "Bearer abc" {
		t.Error("MaskHeaders must not modify its input")
	}
}

func TestFormatHeaders_NeverLeaksSecret(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer topsecret")
	h.Set("Cookie", "session=xyz")
	h.Set("Accept", "application/json")

	out := FormatHeaders(h)
	if strings.Contains(out, "topsecret") || strings.Contains(out, "xyz") {
		t.Fatalf("secret leaked: %q", out)
	}
	want := "Accept: application/json\nAuthorization: #MASKED:16#\nCookie: #MASKED:11#\n"
	if out != want {
		t.Errorf("unexpected format:\n%s\nwant:\n%s", out, want)
	}
}

func TestIsSensitiveHeader(t *testing.T) {
	if !IsSensitiveHeader("authorization") || !IsSensitiveHeader("X-API-KEY") {
		t.Error("expected case-insensitive match")
	}
	if IsSensitiveHeader("Content-Type") {
		t.Error("content type is not sensitive")
	}
}
