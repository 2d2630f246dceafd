// Package version exposes build information of the kubeping agent.
//
// Version, commit and build time are set at compile time via -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/kubeping/version.Version=1.0.0"
//
// Unset values fall back to the VCS stamp embedded by the Go toolchain.
package version
