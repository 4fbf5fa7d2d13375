package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

// Entry is one recurring task.
type Entry struct {
	Name     string
	Schedule Schedule
	Run      func(ctx context.Context) error
}

// Manager fires entries on their schedules until stopped.
type Manager struct {
	entries []Entry
	now     func() time.Time
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewManager(entries ...Entry) *Manager {
	return &Manager{entries: entries, now: time.Now}
}

// ForJobs builds the default schedule: weekly emails Sunday 23:00 UTC and
// the churn sweep daily at 09:00 UTC.
func ForJobs(jobs *Jobs) *Manager {
	return NewManager(
		Entry{
			Name:     JobWeekly,
			Schedule: Weekly(time.Sunday, 23),
			Run: func(ctx context.Context) error {
				_, err := jobs.RunWeekly(ctx)
				return err
			},
		},
		Entry{
			Name:     JobChurn,
			Schedule: Daily(9),
			Run: func(ctx context.Context) error {
				_, err := jobs.RunChurn(ctx)
				return err
			},
		},
	)
}

// Start launches one worker per entry. Calling Start twice is a no-op.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Fresh context for each start cycle so the manager can be restarted.
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.running = true
	log.Info("[Scheduler] Starting background jobs")

	for _, e := range m.entries {
		m.wg.Add(1)
		go m.worker(m.ctx, e)
	}

	log.Info("[Scheduler] Started successfully")
}

// Stop cancels running jobs and waits for the workers to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[Scheduler] Stopping background jobs...")
	m.cancel()
	m.running = false
	m.wg.Wait()
	log.Info("[Scheduler] Stopped successfully")
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Manager) worker(ctx context.Context, e Entry) {
	defer m.wg.Done()

	for {
		next := e.Schedule(m.now())
		wait := next.Sub(m.now())
		log.Infof("[Scheduler] %s next run at %s", e.Name, next.Format(time.RFC3339))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Infof("[Scheduler] %s worker stopping", e.Name)
			return
		case <-timer.C:
		}

		start := m.now()
		if err := e.Run(ctx); err != nil {
			log.Errorf("[Scheduler] %s failed: %v", e.Name, err)
			continue
		}
		log.Infof("[Scheduler] %s finished in %s", e.Name, m.now().Sub(start).Round(time.Millisecond))
	}
}
