// Package version reports the toolflow build version.
//
// Version and Commit are set at link time and fall back to the module build
// info recorded by the Go toolchain:
//
//	go build -ldflags "-X github.com/kbukum/toolflow/version.Version=1.4.0" ./cmd/toolflow
package version
