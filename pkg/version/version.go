package version

import (
	"fmt"
	"runtime"
)

// These variables are intended to be set at build time via -ldflags.
var (
	// Version is the semantic version of the build, e.g. v0.1.0. Defaults to "dev".
	Version = "dev"
	// Commit is the short git commit hash.
	Commit = ""
	// Date is the build timestamp in RFC3339.
	Date = ""
	// Go is the Go toolchain version used for the build.
	Go = runtime.Version()
)

// Product is the name used in the default User-Agent header.
const Product = "httpengine"

// Info returns version/build metadata suitable for logging.
func Info() map[string]string {
	return map[string]string{
		"version": Version,
		"commit":  Commit,
		"date":    Date,
		"go":      Go,
	}
}

// UserAgent is sent by the HTTP transport unless the caller sets one.
func UserAgent() string {
	return fmt.Sprintf("%s/%s (%s; %s)", Product, Version, runtime.GOOS, Go)
}

// String renders a one-line version banner for the CLI.
func String() string {
	s := Product + " " + Version
	if Commit != "" {
		s += " (" + Commit + ")"
	}
	if Date != "" {
		s += " built " + Date
	}
	return s + " " + Go
}
