// Package buildinfo carries values stamped in at link time:
//
//	go build -ldflags "-X github.com/varsilias/bubblechat/internal/buildinfo.Version=v0.3.0 ..."
package buildinfo

var (
	Version = "dev"
	Commit  = "none"
	BuiltAt = "unknown"
)
