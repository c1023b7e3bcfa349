package jobmanager

import (
	"bytes"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// JobID is a unique identifier for a background script job
type JobID int64

// JobStatus represents the current status of a job
type JobStatus string

const (
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusStopped   JobStatus = "stopped"
)

// Job represents one background script run. The job's output buffer is the
// script's stdout; the REPL reads it after completion.
type Job struct {
	ID        JobID
	Script    string // script file or label shown in listings
	Status    JobStatus
	Error     error
	StartTime time.Time
	EndTime   time.Time

	stop atomic.Bool
	mu   sync.RWMutex
	out  bytes.Buffer
}

// NewJob creates a new running job
func NewJob(id JobID, script string) *Job {
	return &Job{
		ID:        id,
		Status:    StatusRunning,
		Script:    script,
		StartTime: time.Now(),
	}
}

// RequestStop raises the cooperative stop flag. The script halts at its
// next statement boundary.
func (j *Job) RequestStop() {
	j.stop.Store(true)
}

// StopRequested reports whether a stop has been requested. Wired into the
// interpreter's stop check.
func (j *Job) StopRequested() bool {
	return j.stop.Load()
}

// Write collects script output. Implements io.Writer for the interpreter.
func (j *Job) Write(p []byte) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.out.Write(p)
}

// Output returns everything the script printed so far
func (j *Job) Output() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.out.String()
}

// GetStatus returns the current status of the job
func (j *Job) GetStatus() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// GetError returns the error the job finished with, if any
func (j *Job) GetError() error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Error
}

// finish records the terminal status
func (j *Job) finish(status JobStatus, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Error = err
	j.EndTime = time.Now()
}

// GetDuration returns how long the job has run (or ran)
func (j *Job) GetDuration() time.Duration {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.EndTime.IsZero() {
		return time.Since(j.StartTime)
	}
	return j.EndTime.Sub(j.StartTime)
}

// String returns the listing line for the job
func (j *Job) String() string {
	j.mu.RLock()
	status := j.Status
	endTime := j.EndTime
	j.mu.RUnlock()

	duration := "running"
	if !endTime.IsZero() {
		duration = j.GetDuration().Round(time.Millisecond).String()
	}
	return fmt.Sprintf("[%d] %s - %s (%s)", j.ID, j.Script, status, duration)
}
