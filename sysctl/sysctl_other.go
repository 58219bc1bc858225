//go:build !linux

package sysctl

import "github.com/kbukum/tpcgraph/errors"

// MaxPriorityNice is the nice value of the highest non-realtime priority.
const MaxPriorityNice = -20

// PinToCPU is not available on this platform.
func PinToCPU(cpu int) error {
	return errors.Unsupported("cpu pinning").WithDetail("cpu", cpu)
}

// AllowedCPUs is not available on this platform.
func AllowedCPUs() ([]int, error) {
	return nil, errors.Unsupported("cpu affinity query")
}

// RaisePriority is not available on this platform.
func RaisePriority() (int, error) {
	return 0, errors.Unsupported("priority elevation")
}

// SetThreadName is not available on this platform.
func SetThreadName(string) error {
	return errors.Unsupported("thread naming")
}
