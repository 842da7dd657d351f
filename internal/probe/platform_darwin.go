//go:build darwin

package probe

import "os/exec"

func systemPlatform(run Runner) Platform {
	return NewDarwinPlatform(run)
}

func hideWindow(cmd *exec.Cmd) {}
