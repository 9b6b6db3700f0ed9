package hooks

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/substratelabs/hookhost/internal/config"
	"github.com/substratelabs/hookhost/internal/log"
)

// startGracePeriod is how long TriggerSync lets freshly-dispatched detached
// hooks settle before returning, so very fast hooks are not torn down with
// the caller.
const startGracePeriod = 50 * time.Millisecond

// Manager orchestrates hook execution for lifecycle events: it loads and
// merges configuration, filters hooks per event, runs blocking hooks in
// order, dispatches non-blocking hooks to the watchdog, and aggregates
// results. Construct with NewManager and release with Close.
type Manager struct {
	mu       sync.RWMutex
	config   *HooksConfiguration
	loader   *Loader
	executor *Executor
	watchdog *Watchdog
	context  string
	watcher  *config.Watcher

	closeOnce sync.Once
}

// Option configures a Manager.
type Option func(*Manager)

// WithContext sets the execution context ("cli" or "embedded") stamped onto
// every event payload. Defaults to "cli".
func WithContext(ctx string) Option {
	return func(m *Manager) { m.context = ctx }
}

// WithLoader injects a configuration loader, mainly for tests and embedders
// with non-default paths.
func WithLoader(l *Loader) Option {
	return func(m *Manager) { m.loader = l }
}

// WithOverridePath adds an explicit highest-precedence configuration file.
func WithOverridePath(path string) Option {
	return func(m *Manager) { m.loader.OverridePath = path }
}

// NewManager builds a manager and performs the initial configuration load.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		loader:   &Loader{},
		executor: NewExecutor(),
		watchdog: NewWatchdog(),
		context:  ContextCLI,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.config = m.loader.Load()

	if m.config.Enabled {
		log.Debug("hook manager ready: context=%s, %d event types configured",
			m.context, len(m.config.Hooks))
	} else {
		log.Debug("hook manager ready: hooks disabled")
	}
	return m
}

// Config returns the current configuration snapshot.
func (m *Manager) Config() *HooksConfiguration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Reload re-reads the configuration sources and swaps in the result. An
// in-flight Trigger keeps the snapshot it started with.
func (m *Manager) Reload() {
	cfg := m.loader.Load()
	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()
	log.Info("hook configuration reloaded: %d event types", len(cfg.Hooks))
}

// Watch starts polling the configuration sources and reloads on change.
// Idempotent; stopped by Close.
func (m *Manager) Watch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.watcher != nil {
		return
	}
	m.watcher = config.NewWatcher(m.loader.Sources(), m.Reload)
	m.watcher.Start()
}

// Watchdog exposes the process supervisor, letting callers observe the
// active registry.
func (m *Manager) Watchdog() *Watchdog {
	return m.watchdog
}

// Trigger runs all applicable hooks for the event. Blocking hooks run first,
// sequentially and in configured order; the first veto skips everything
// else. Non-blocking hooks are then either waited for (concurrently when
// parallel execution is configured) or dispatched to the watchdog with an
// immediate "started" result. Trigger never returns an error; failures are
// reported inside the result.
func (m *Manager) Trigger(ctx context.Context, event Event, data *EventData, waitForCompletion bool) *HookResult {
	cfg := m.Config()
	result := &HookResult{Event: event}

	if !cfg.Enabled {
		return result
	}

	data.Context = m.context
	data.Timestamp = time.Now().Format(time.RFC3339)

	var applicable []HookConfig
	for _, h := range cfg.Hooks[event] {
		if h.IsEnabled() && h.Matches(data) {
			applicable = append(applicable, h)
		}
	}
	if len(applicable) == 0 {
		return result
	}

	log.Debug("triggering %d hooks for event %s", len(applicable), event)

	var blocking, nonBlocking []HookConfig
	for _, h := range applicable {
		if h.Blocking {
			blocking = append(blocking, h)
		} else {
			nonBlocking = append(nonBlocking, h)
		}
	}

	for _, h := range blocking {
		res := m.executor.ExecuteBlocking(ctx, h, data)
		result.Results = append(result.Results, res)
		result.TotalTime += res.ExecutionTime
		if res.Blocked {
			result.Blocked = true
			break
		}
	}

	if !result.Blocked && len(nonBlocking) > 0 {
		if waitForCompletion {
			result.Results = append(result.Results, m.runWaited(ctx, cfg, nonBlocking, data, result)...)
		} else {
			for _, h := range nonBlocking {
				timeout := time.Duration(h.Timeout) * time.Second
				result.Results = append(result.Results, m.watchdog.Start(h, data, timeout))
			}
		}
	}

	result.HooksExecuted = len(result.Results)
	return result
}

// runWaited executes non-blocking hooks to completion, concurrently when
// configured.
func (m *Manager) runWaited(ctx context.Context, cfg *HooksConfiguration, hooks []HookConfig, data *EventData, agg *HookResult) []HookExecutionResult {
	results := make([]HookExecutionResult, len(hooks))

	if cfg.ParallelExecution && len(hooks) > 1 {
		var g errgroup.Group
		for i, h := range hooks {
			g.Go(func() error {
				results[i] = m.executor.ExecuteBlocking(ctx, h, data)
				return nil
			})
		}
		g.Wait()

		var longest time.Duration
		for _, res := range results {
			if res.ExecutionTime > longest {
				longest = res.ExecutionTime
			}
		}
		if longest > agg.TotalTime {
			agg.TotalTime = longest
		}
		return results
	}

	for i, h := range hooks {
		results[i] = m.executor.ExecuteBlocking(ctx, h, data)
		agg.TotalTime += results[i].ExecutionTime
	}
	return results
}

// TriggerSync is the synchronous convenience entry point. When a hook vetoed
// the operation it returns at once; the blocking executor has already
// confirmed that the offending process is dead. When dispatching
// fire-and-forget hooks it holds the caller for a brief grace period so the
// spawned processes actually start before control returns.
func (m *Manager) TriggerSync(event Event, data *EventData, waitForCompletion bool) *HookResult {
	result := m.Trigger(context.Background(), event, data, waitForCompletion)
	if result.Blocked {
		return result
	}
	if !waitForCompletion {
		time.Sleep(startGracePeriod)
	}
	return result
}

// Close stops the config watcher and the watchdog, forcibly terminating any
// hook process still registered. Call once at teardown.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		w := m.watcher
		m.watcher = nil
		m.mu.Unlock()

		if w != nil {
			w.Stop()
		}
		m.watchdog.Close()
	})
}
