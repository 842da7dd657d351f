//go:build windows

package probe

import (
	"os/exec"
	"syscall"
)

// createNoWindow keeps ping and arp from flashing a console
const createNoWindow = 0x08000000

func systemPlatform(run Runner) Platform {
	return NewWindowsPlatform(run)
}

func hideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: createNoWindow,
	}
}
