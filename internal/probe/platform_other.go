//go:build !linux && !darwin && !windows

package probe

import "os/exec"

// BSDs share the macOS ping and arp flags
func systemPlatform(run Runner) Platform {
	return NewDarwinPlatform(run)
}

func hideWindow(cmd *exec.Cmd) {}
