//go:build linux

package main

import "golang.org/x/sys/unix"

// sysTotalMemory reports total system RAM in bytes, used to size
// -limit=auto. Grounded on the same golang.org/x/sys/unix syscall surface
// tinygo itself depends on for target/host introspection.
func sysTotalMemory() (uint64, bool) {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0, false
	}
	return uint64(info.Totalram) * uint64(info.Unit), true
}
