//go:build linux

package probe

import "os/exec"

func systemPlatform(run Runner) Platform {
	return NewLinuxPlatform(run)
}

func hideWindow(cmd *exec.Cmd) {}
