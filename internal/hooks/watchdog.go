package hooks

import (
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/substratelabs/hookhost/internal/log"
)

const (
	watchdogInterval = 200 * time.Millisecond
	terminateGrace   = 500 * time.Millisecond
)

// runningHook is one registered detached process.
type runningHook struct {
	cmd      *exec.Cmd
	deadline time.Time
	name     string
}

// Watchdog spawns non-blocking hooks as detached OS processes and enforces
// their timeouts from a single background goroutine. The registry is the
// only shared mutable state, guarded by one mutex shared between spawn
// sites and the monitor.
type Watchdog struct {
	mu       sync.Mutex
	procs    map[int]*runningHook
	running  bool
	stopCh   chan struct{}
	interval time.Duration
}

// NewWatchdog creates a watchdog with an empty registry. The monitor
// goroutine starts lazily on first spawn.
func NewWatchdog() *Watchdog {
	return &Watchdog{
		procs:    make(map[int]*runningHook),
		interval: watchdogInterval,
	}
}

// Start spawns the hook as a detached process, writes the event payload to
// its stdin once, closes stdin, and registers the process for supervision.
// It returns immediately; the result represents "started", not "completed".
// A non-positive timeout falls back to DefaultNonBlockingTimeout.
func (w *Watchdog) Start(hook HookConfig, data *EventData, timeout time.Duration) HookExecutionResult {
	if !hook.IsEnabled() {
		return HookExecutionResult{
			HookName: hook.Name,
			Success:  true,
			ExitCode: 0,
			Stdout:   "hook disabled",
		}
	}
	if timeout <= 0 {
		timeout = DefaultNonBlockingTimeout
	}

	payload, err := data.Marshal()
	if err != nil {
		return startFailure(hook.Name, err)
	}

	args := shellArgs(expandHome(hook.Command))
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Env = hookEnv(data)
	cmd.Dir = data.WorkingDir
	setDetached(cmd)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return startFailure(hook.Name, err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		log.Warn("failed to start hook %q: %v", hook.Name, err)
		return startFailure(hook.Name, err)
	}

	// One-shot delivery; the hook may ignore stdin entirely, so write
	// errors are not failures. No further interaction with the process.
	stdin.Write(payload)
	stdin.Close()

	pid := cmd.Process.Pid
	w.mu.Lock()
	w.procs[pid] = &runningHook{
		cmd:      cmd,
		deadline: time.Now().Add(timeout),
		name:     hook.Name,
	}
	w.mu.Unlock()
	w.ensureRunning()

	log.Debug("hook %q started in background (pid %d, timeout %s)", hook.Name, pid, timeout)

	return HookExecutionResult{
		HookName: hook.Name,
		Success:  true,
		ExitCode: 0,
		Stdout:   fmt.Sprintf("started in background (pid %d, timeout %s)", pid, timeout),
	}
}

func startFailure(name string, err error) HookExecutionResult {
	return HookExecutionResult{
		HookName: name,
		Success:  false,
		ExitCode: -1,
		Error:    err.Error(),
	}
}

// ActiveCount returns the number of registered processes.
func (w *Watchdog) ActiveCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.procs)
}

// ActiveHooks returns the hook names of all registered processes.
func (w *Watchdog) ActiveHooks() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	names := make([]string, 0, len(w.procs))
	for _, rh := range w.procs {
		names = append(names, rh.name)
	}
	return names
}

// ensureRunning starts the monitor goroutine if it is not already running.
// Starting it twice is a no-op.
func (w *Watchdog) ensureRunning() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	go w.monitor(w.stopCh)
}

func (w *Watchdog) monitor(stop <-chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.sweep(time.Now())
		}
	}
}

// sweep reaps processes that exited on their own and enforces deadlines on
// the rest. Removal happens under the lock exactly once per process; killing
// happens outside the lock so spawn sites never stall behind the grace wait.
func (w *Watchdog) sweep(now time.Time) {
	var expired []*runningHook

	w.mu.Lock()
	for pid, rh := range w.procs {
		if processExited(rh.cmd.Process) {
			delete(w.procs, pid)
			log.Debug("hook %q (pid %d) completed", rh.name, pid)
			continue
		}
		if now.After(rh.deadline) {
			delete(w.procs, pid)
			expired = append(expired, rh)
		}
	}
	w.mu.Unlock()

	for _, rh := range expired {
		log.Warn("hook %q (pid %d) timed out, terminating", rh.name, rh.cmd.Process.Pid)
		w.stopProcess(rh)
	}
}

// stopProcess ends a process: graceful terminate, short grace period, then
// force kill, then reap.
func (w *Watchdog) stopProcess(rh *runningHook) {
	p := rh.cmd.Process
	if processExited(p) {
		return
	}
	terminateProcess(p)
	time.Sleep(terminateGrace)
	if processExited(p) {
		return
	}
	killProcess(p)
	log.Warn("force killed hook %q (pid %d)", rh.name, p.Pid)
	for i := 0; i < 20 && !processExited(p); i++ {
		time.Sleep(10 * time.Millisecond)
	}
}

// Close stops the monitor and forcibly terminates every still-registered
// process. No hook process outlives the host once Close returns.
func (w *Watchdog) Close() {
	w.mu.Lock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
	procs := w.procs
	w.procs = make(map[int]*runningHook)
	w.mu.Unlock()

	var alive []*runningHook
	for _, rh := range procs {
		if processExited(rh.cmd.Process) {
			continue
		}
		log.Debug("terminating hook %q (pid %d) during cleanup", rh.name, rh.cmd.Process.Pid)
		terminateProcess(rh.cmd.Process)
		alive = append(alive, rh)
	}
	if len(alive) == 0 {
		return
	}

	time.Sleep(terminateGrace)
	for _, rh := range alive {
		if !processExited(rh.cmd.Process) {
			killProcess(rh.cmd.Process)
		}
	}
	for _, rh := range alive {
		for i := 0; i < 20 && !processExited(rh.cmd.Process); i++ {
			time.Sleep(10 * time.Millisecond)
		}
	}
}
