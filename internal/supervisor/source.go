package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/riskibarqy/match-tracker/internal/domain/process"
)

// Handle is one running child process.
type Handle interface {
	PID() int
	// Stop asks the process to exit gracefully.
	Stop() error
	// Kill terminates the process immediately.
	Kill() error
	// Wait blocks until the process exits and returns its exit code.
	Wait() int
}

// Source spawns worker processes for a role. The exec-backed source is used
// in production; tests substitute a scripted one.
type Source interface {
	Spawn(ctx context.Context, role process.Role) (Handle, error)
}

// ExecSource launches the worker binary with role-specific arguments and
// appends each child's output to a per-role log file.
type ExecSource struct {
	Binary     string
	ArgsByRole map[process.Role][]string
	LogDir     string
}

func (s *ExecSource) Spawn(ctx context.Context, role process.Role) (Handle, error) {
	args, ok := s.ArgsByRole[role]
	if !ok {
		return nil, fmt.Errorf("no arguments configured for role %s", role)
	}

	cmd := exec.CommandContext(ctx, s.Binary, args...)
	cmd.Env = os.Environ()

	if s.LogDir != "" {
		if err := os.MkdirAll(s.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		logPath := filepath.Join(s.LogDir, string(role)+".log")
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open role log %s: %w", logPath, err)
		}
		cmd.Stdout = logFile
		cmd.Stderr = logFile
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s worker: %w", role, err)
	}

	return &execHandle{cmd: cmd}, nil
}

type execHandle struct {
	cmd *exec.Cmd
}

func (h *execHandle) PID() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

func (h *execHandle) Stop() error {
	if h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Signal(syscall.SIGTERM)
}

func (h *execHandle) Kill() error {
	if h.cmd.Process == nil {
		return nil
	}
	return h.cmd.Process.Kill()
}

func (h *execHandle) Wait() int {
	err := h.cmd.Wait()
	if closer, ok := h.cmd.Stdout.(*os.File); ok {
		_ = closer.Close()
	}
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		return exitErr.ExitCode()
	}
	return -1
}
