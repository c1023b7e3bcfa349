// Package jobmanager runs script files as background jobs with a
// concurrency cap and cooperative cancellation.
package jobmanager

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"valyxo/errors"
)

// Task is the work a job performs. It receives the job so it can wire the
// stop flag and the output buffer into the interpreter.
type Task func(job *Job) error

// JobNotification announces a job reaching a terminal status
type JobNotification struct {
	JobID  JobID
	Script string
	Status JobStatus
	Error  error
}

// Manager manages the lifecycle of background script jobs
type Manager struct {
	jobs       map[JobID]*Job
	mu         sync.RWMutex
	semaphore  chan struct{}
	nextID     JobID
	notifyChan chan JobNotification
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewManager creates a manager with the given concurrency limit
func NewManager(concurrencyLimit int) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		jobs:       make(map[JobID]*Job),
		semaphore:  make(chan struct{}, concurrencyLimit),
		nextID:     1,
		notifyChan: make(chan JobNotification, 100),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Submit starts a script job and returns its ID. Submission fails when the
// manager is shutting down or the concurrency limit is reached.
func (m *Manager) Submit(script string, task Task) (JobID, error) {
	select {
	case <-m.ctx.Done():
		return 0, errors.NewSystemError("JOBS_SHUTDOWN", "job manager is shutting down")
	default:
	}

	select {
	case m.semaphore <- struct{}{}:
	default:
		return 0, errors.NewUserError("JOBS_LIMIT", "concurrency limit reached, cannot submit more jobs").
			WithHint(fmt.Sprintf("at most %d jobs run at once; wait for one to finish", cap(m.semaphore)))
	}

	m.mu.Lock()
	jobID := m.nextID
	m.nextID++
	job := NewJob(jobID, script)
	m.jobs[jobID] = job
	m.mu.Unlock()

	m.wg.Add(1)
	go m.executeJob(job, task)

	return jobID, nil
}

func (m *Manager) executeJob(job *Job, task Task) {
	defer m.wg.Done()
	defer func() { <-m.semaphore }()

	err := task(job)

	var status JobStatus
	switch {
	case err == nil:
		status = StatusCompleted
	case job.StopRequested():
		status = StatusStopped
	default:
		status = StatusFailed
	}
	job.finish(status, err)

	select {
	case m.notifyChan <- JobNotification{JobID: job.ID, Script: job.Script, Status: status, Error: err}:
	case <-m.ctx.Done():
	}
}

// GetJob returns a specific job
func (m *Manager) GetJob(id JobID) (*Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, exists := m.jobs[id]
	if !exists {
		return nil, errors.NewUserError("NO_SUCH_JOB", fmt.Sprintf("job %d not found", id))
	}
	return job, nil
}

// ListJobs returns all jobs ordered by ID
func (m *Manager) ListJobs() []*Job {
	m.mu.RLock()
	defer m.mu.RUnlock()
	jobs := make([]*Job, 0, len(m.jobs))
	for _, job := range m.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs
}

// Kill requests a cooperative stop of a running job
func (m *Manager) Kill(id JobID) error {
	job, err := m.GetJob(id)
	if err != nil {
		return err
	}
	if job.GetStatus() != StatusRunning {
		return errors.NewUserError("JOB_NOT_RUNNING",
			fmt.Sprintf("job %d is not running (status: %s)", id, job.GetStatus()))
	}
	job.RequestStop()
	return nil
}

// Notifications returns the channel announcing finished jobs. The REPL
// drains it between prompts.
func (m *Manager) Notifications() <-chan JobNotification {
	return m.notifyChan
}

// RunningCount returns the number of currently running jobs
func (m *Manager) RunningCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, job := range m.jobs {
		if job.GetStatus() == StatusRunning {
			count++
		}
	}
	return count
}

// CleanFinished removes terminal jobs older than the given age and returns
// how many were dropped
func (m *Manager) CleanFinished(olderThan time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for id, job := range m.jobs {
		status := job.GetStatus()
		if status == StatusRunning {
			continue
		}
		job.mu.RLock()
		old := job.EndTime.Before(cutoff)
		job.mu.RUnlock()
		if old {
			delete(m.jobs, id)
			removed++
		}
	}
	return removed
}

// Shutdown stops accepting jobs, asks running jobs to stop and waits for
// them to finish
func (m *Manager) Shutdown() {
	m.cancel()
	m.mu.RLock()
	for _, job := range m.jobs {
		if job.GetStatus() == StatusRunning {
			job.RequestStop()
		}
	}
	m.mu.RUnlock()
	m.wg.Wait()
	close(m.notifyChan)
}
