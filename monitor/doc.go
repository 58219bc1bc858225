// Package monitor serves a read-only HTTP view of a running graph: node
// health derived from thread handles, the latest telemetry report per
// node, and build information.
//
// The server is a Gin engine mounted on an http.ServeMux and wrapped for
// HTTP/2 cleartext. It implements component.Component so it can be started
// and stopped with the rest of a program's infrastructure.
package monitor
