package process

import "time"

type Role string

const (
	RoleBatch   Role = "batch"
	RoleMonitor Role = "monitor"
)

type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
)

// State is the supervisor-owned view of one worker role. Worker logic never
// mutates it; transitions are driven by spawn, exit and signal events.
type State struct {
	Role          Role       `json:"role"`
	Status        Status     `json:"status"`
	PID           int        `json:"pid"`
	StartedAt     time.Time  `json:"startedAt"`
	LastExitCode  *int       `json:"lastExitCode,omitempty"`
	RestartCount  int        `json:"restartCount"`
	NextRestartAt *time.Time `json:"nextRestartAt,omitempty"`
}
