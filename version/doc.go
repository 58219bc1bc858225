// Package version reports build and host information for tpcgraph
// programs: the startup banner and the monitor's /info endpoint.
//
// Version, commit, branch and build time are set at compile time:
//
//	go build -ldflags "-X github.com/kbukum/tpcgraph/version.Version=1.0.0"
package version
