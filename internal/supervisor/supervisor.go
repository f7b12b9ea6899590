package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/riskibarqy/match-tracker/internal/domain/process"
	"github.com/riskibarqy/match-tracker/internal/platform/logging"
)

// StatusSink receives the periodic health artifact.
type StatusSink interface {
	Write(name string, payload any) error
}

type Config struct {
	Roles                []process.Role
	RestartBackoff       time.Duration
	BatchRestartInterval time.Duration
	HealthInterval       time.Duration
	ShutdownGrace        time.Duration
	ReloadPause          time.Duration
}

// StatusReport is the health artifact shape. It is written as status.json on
// every health tick and served by the status endpoint.
type StatusReport struct {
	Timestamp time.Time                      `json:"timestamp"`
	Uptime    time.Duration                  `json:"uptime"`
	Processes map[process.Role]process.State `json:"processes"`
}

// Supervisor keeps one child process alive per configured role. Children that
// exit non-zero are respawned after a fixed backoff; a clean exit is final
// unless a restart was requested.
type Supervisor struct {
	source Source
	sink   StatusSink
	cfg    Config
	logger *logging.Logger
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error

	mu              sync.Mutex
	startedAt       time.Time
	states          map[process.Role]process.State
	handles         map[process.Role]Handle
	restartRequests map[process.Role]bool
}

func New(source Source, sink StatusSink, cfg Config, logger *logging.Logger) *Supervisor {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.RestartBackoff <= 0 {
		cfg.RestartBackoff = 5 * time.Second
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if cfg.ReloadPause <= 0 {
		cfg.ReloadPause = 2 * time.Second
	}
	if len(cfg.Roles) == 0 {
		cfg.Roles = []process.Role{process.RoleBatch, process.RoleMonitor}
	}

	return &Supervisor{
		source:          source,
		sink:            sink,
		cfg:             cfg,
		logger:          logger,
		now:             time.Now,
		sleep:           sleepContext,
		states:          make(map[process.Role]process.State),
		handles:         make(map[process.Role]Handle),
		restartRequests: make(map[process.Role]bool),
	}
}

// Run supervises until the context is canceled, then stops every child
// gracefully and force-kills stragglers after the shutdown grace.
func (s *Supervisor) Run(ctx context.Context) error {
	s.mu.Lock()
	s.startedAt = s.now()
	s.mu.Unlock()

	var wg conc.WaitGroup
	roleDone := make(map[process.Role]chan struct{}, len(s.cfg.Roles))

	for _, role := range s.cfg.Roles {
		role := role
		done := make(chan struct{})
		roleDone[role] = done
		wg.Go(func() {
			defer close(done)
			s.runRole(ctx, role)
		})
	}

	if s.cfg.HealthInterval > 0 && s.sink != nil {
		wg.Go(func() { s.runHealthLoop(ctx) })
	}
	if s.cfg.BatchRestartInterval > 0 {
		wg.Go(func() { s.runBatchRestartLoop(ctx) })
	}

	<-ctx.Done()
	s.stopChildren(roleDone)
	wg.Wait()
	return nil
}

func (s *Supervisor) runRole(ctx context.Context, role process.Role) {
	for {
		if ctx.Err() != nil {
			return
		}

		handle, err := s.source.Spawn(ctx, role)
		if err != nil {
			s.logger.Error("spawn worker failed", "role", role, "error", err)
			if s.sleep(ctx, s.cfg.RestartBackoff) != nil {
				return
			}
			continue
		}

		s.recordStarted(role, handle)
		s.logger.Info("worker started", "role", role, "pid", handle.PID())

		exitCode := handle.Wait()
		requested := s.recordExited(role, exitCode)
		s.logger.Info("worker exited", "role", role, "exit_code", exitCode, "restart_requested", requested)

		if ctx.Err() != nil {
			return
		}
		if exitCode == 0 && !requested {
			return
		}

		pause := s.cfg.RestartBackoff
		if requested {
			pause = s.cfg.ReloadPause
		}
		s.recordRestartPending(role, pause)
		if s.sleep(ctx, pause) != nil {
			return
		}
	}
}

func (s *Supervisor) runBatchRestartLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.BatchRestartInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.logger.Info("scheduled batch worker restart")
			s.RequestRestart(process.RoleBatch)
		}
	}
}

func (s *Supervisor) runHealthLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.sink.Write("status", s.Status()); err != nil {
				s.logger.Warn("write status artifact failed", "error", err)
			}
		}
	}
}

// RequestRestart stops the role's child and marks it for respawn even when it
// exits cleanly.
func (s *Supervisor) RequestRestart(role process.Role) {
	s.mu.Lock()
	s.restartRequests[role] = true
	handle := s.handles[role]
	s.mu.Unlock()

	if handle != nil {
		if err := handle.Stop(); err != nil {
			s.logger.Warn("stop worker for restart failed", "role", role, "error", err)
		}
	}
}

// Reload restarts every supervised child. Wired to SIGHUP.
func (s *Supervisor) Reload() {
	for _, role := range s.cfg.Roles {
		s.RequestRestart(role)
	}
}

func (s *Supervisor) Status() StatusReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	processes := make(map[process.Role]process.State, len(s.states))
	for role, state := range s.states {
		processes[role] = state
	}

	report := StatusReport{
		Timestamp: s.now().UTC(),
		Processes: processes,
	}
	if !s.startedAt.IsZero() {
		report.Uptime = s.now().Sub(s.startedAt)
	}
	return report
}

func (s *Supervisor) stopChildren(roleDone map[process.Role]chan struct{}) {
	s.mu.Lock()
	handles := make(map[process.Role]Handle, len(s.handles))
	for role, handle := range s.handles {
		handles[role] = handle
	}
	s.mu.Unlock()

	var wg conc.WaitGroup
	for role, handle := range handles {
		role, handle := role, handle
		done := roleDone[role]
		wg.Go(func() {
			if err := handle.Stop(); err != nil {
				s.logger.Warn("graceful stop failed", "role", role, "error", err)
			}
			timer := time.NewTimer(s.cfg.ShutdownGrace)
			defer timer.Stop()
			select {
			case <-done:
			case <-timer.C:
				s.logger.Warn("worker did not stop in time, killing", "role", role)
				_ = handle.Kill()
			}
		})
	}
	wg.Wait()
}

func (s *Supervisor) recordStarted(role process.Role, handle Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.states[role]
	state.Role = role
	state.Status = process.StatusRunning
	state.PID = handle.PID()
	state.StartedAt = s.now().UTC()
	state.NextRestartAt = nil
	s.states[role] = state
	s.handles[role] = handle
}

func (s *Supervisor) recordExited(role process.Role, exitCode int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.states[role]
	state.Status = process.StatusStopped
	state.PID = 0
	state.LastExitCode = &exitCode
	s.states[role] = state
	delete(s.handles, role)

	requested := s.restartRequests[role]
	s.restartRequests[role] = false
	return requested
}

func (s *Supervisor) recordRestartPending(role process.Role, pause time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := s.states[role]
	state.RestartCount++
	next := s.now().Add(pause).UTC()
	state.NextRestartAt = &next
	s.states[role] = state
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
