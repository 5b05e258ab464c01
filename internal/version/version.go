// Package version holds build metadata, set with -ldflags "-X ...version.Version=v1.2.3".
package version

// Version is the application version.
var Version = "dev"
