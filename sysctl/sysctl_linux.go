//go:build linux

package sysctl

import (
	"golang.org/x/sys/unix"

	"github.com/kbukum/tpcgraph/errors"
)

const (
	// MaxPriorityNice is the nice value of the highest non-realtime priority.
	MaxPriorityNice = -20
	// threadNameLen is the kernel limit for comm names, without the NUL.
	threadNameLen = 15
	// rlimitNice is RLIMIT_NICE, identical on every Linux architecture.
	rlimitNice = 0xd
)

// PinToCPU restricts the calling thread to the given CPU core.
func PinToCPU(cpu int) error {
	if cpu < 0 {
		return errors.ResourceControl("cpu pinning", nil).WithDetail("cpu", cpu)
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if set.Count() == 0 {
		return errors.ResourceControl("cpu pinning", unix.EINVAL).WithDetail("cpu", cpu)
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return errors.ResourceControl("cpu pinning", err).WithDetail("cpu", cpu)
	}
	return nil
}

// AllowedCPUs returns the cores the calling thread may currently run on.
func AllowedCPUs() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, errors.ResourceControl("cpu affinity query", err)
	}
	var cpus []int
	for i := 0; i < len(set)*64; i++ {
		if set.IsSet(i) {
			cpus = append(cpus, i)
		}
	}
	return cpus, nil
}

// RaisePriority raises the calling thread to the highest priority available
// to the process and returns the nice value applied. It tries the absolute
// maximum first and falls back to the RLIMIT_NICE ceiling.
func RaisePriority() (int, error) {
	tid := unix.Gettid()
	err := unix.Setpriority(unix.PRIO_PROCESS, tid, MaxPriorityNice)
	if err == nil {
		return MaxPriorityNice, nil
	}

	var rl unix.Rlimit
	if rerr := unix.Getrlimit(rlimitNice, &rl); rerr != nil {
		return 0, errors.ResourceControl("priority elevation", err)
	}
	ceiling := niceCeiling(rl.Cur)
	if ceiling >= 0 {
		return 0, errors.ResourceControl("priority elevation", err).WithDetail("rlimit_nice", rl.Cur)
	}
	if serr := unix.Setpriority(unix.PRIO_PROCESS, tid, ceiling); serr != nil {
		return 0, errors.ResourceControl("priority elevation", serr).WithDetail("nice", ceiling)
	}
	return ceiling, nil
}

// niceCeiling converts an RLIMIT_NICE value into the lowest nice value it
// permits (the limit is expressed as 20 - nice).
func niceCeiling(limit uint64) int {
	if limit >= 40 {
		return MaxPriorityNice
	}
	return 20 - int(limit)
}

// SetThreadName sets the kernel name of the calling thread, truncated to the
// 15 bytes the kernel keeps.
func SetThreadName(name string) error {
	if len(name) > threadNameLen {
		name = name[:threadNameLen]
	}
	p, err := unix.BytePtrFromString(name)
	if err != nil {
		return errors.ResourceControl("thread naming", err)
	}
	if err := unix.Prctl(unix.PR_SET_NAME, uintptrOf(p), 0, 0, 0); err != nil {
		return errors.ResourceControl("thread naming", err)
	}
	return nil
}
