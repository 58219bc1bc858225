// Package sysctl applies best-effort OS resource controls to the calling
// thread: CPU affinity, scheduling priority and the kernel thread name.
//
// Every function acts on the current OS thread, so callers must hold it with
// runtime.LockOSThread first. Failures are returned as RESOURCE_CONTROL_FAILED
// (or UNSUPPORTED off Linux) and are meant to be logged, not acted upon.
package sysctl
