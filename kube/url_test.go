package kube

import "testing"

func TestBaseURL(t *testing.T) {
	tests := []struct {
		protocol, host string
		port           int
		version, want  string
	}{
		{"https", "10.96.0.1", 443, "v1", "https://10.96.0.1:443/api/v1"},
		{"http", "localhost", 0, "v1", "http://localhost/api/v1"},
		{"https", "fd00::1", 6443, "v1", "https://[fd00::1]:6443/api/v1"},
		{"https", "fd00::1", 0, "v1", "https://[fd00::1]/api/v1"},
	}
	for _, tc := range tests {
		if got := BaseURL(tc.protocol, tc.host, tc.port, tc.version); got != tc.want {
			t.Errorf("BaseURL(%q,%q,%d) = %q, want %q", tc.protocol, tc.host, tc.port, got, tc.want)
		}
	}
}

func TestPodsURL(t *testing.T) {
	base := "https://k8s:443/api/v1/"
	tests := []struct {
		namespace, selector, want string
	}{
		{"prod", "app=cache", "https://k8s:443/api/v1/namespaces/prod/pods?labelSelector=app%3Dcache"},
		{"prod", "app=cache,tier in (a,b)", "https://k8s:443/api/v1/namespaces/prod/pods?labelSelector=app%3Dcache%2Ctier+in+%28a%2Cb%29"},
		{"", "app=cache", "https://k8s:443/api/v1/pods?labelSelector=app%3Dcache"},
		{"prod", "", "https://k8s:443/api/v1/namespaces/prod/pods"},
		{"we ird", "", "https://k8s:443/api/v1/namespaces/we%20ird/pods"},
	}
	for _, tc := range tests {
		if got := PodsURL(base, tc.namespace, tc.selector); got != tc.want {
			t.Errorf("PodsURL(%q,%q) = %q, want %q", tc.namespace, tc.selector, got, tc.want)
		}
	}
}
