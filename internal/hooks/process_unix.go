//go:build unix

package hooks

import (
	"os"
	"os/exec"
	"syscall"
)

// shellArgs builds the platform command line for a hook command string.
func shellArgs(command string) []string {
	return []string{"sh", "-c", command}
}

// setProcGroup runs the command in its own process group so a timeout kill
// reaches the whole tree, not just the shell.
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// setDetached gives the command its own session. Its lifetime is then
// independent of the parent's; only the watchdog can end it early.
func setDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

// killProcGroup force-kills the command's entire process group.
func killProcGroup(cmd *exec.Cmd) error {
	if cmd.Process != nil {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	return nil
}

// terminateProcess asks the process group to exit gracefully.
func terminateProcess(p *os.Process) error {
	return syscall.Kill(-p.Pid, syscall.SIGTERM)
}

// killProcess force-kills the process group.
func killProcess(p *os.Process) error {
	return syscall.Kill(-p.Pid, syscall.SIGKILL)
}

// processExited polls the child without blocking, reaping it if it has
// exited. Returns true once the process is gone.
func processExited(p *os.Process) bool {
	var status syscall.WaitStatus
	pid, err := syscall.Wait4(p.Pid, &status, syscall.WNOHANG, nil)
	if err != nil {
		// Already reaped or never ours.
		return true
	}
	return pid == p.Pid
}
