package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func soon(after time.Time) time.Time { return after.Add(10 * time.Millisecond) }

func TestManagerRunsEntries(t *testing.T) {
	var runs atomic.Int32
	fired := make(chan struct{}, 10)

	m := NewManager(Entry{
		Name:     "tick",
		Schedule: soon,
		Run: func(context.Context) error {
			runs.Add(1)
			select {
			case fired <- struct{}{}:
			default:
			}
			return nil
		},
	})
	m.Start()
	defer m.Stop()

	for i := 0; i < 2; i++ {
		select {
		case <-fired:
		case <-time.After(2 * time.Second):
			t.Fatal("entry did not fire")
		}
	}
	assert.GreaterOrEqual(t, runs.Load(), int32(2))
}

func TestManagerStopCancelsWaitingWorkers(t *testing.T) {
	m := NewManager(Entry{
		Name:     "never",
		Schedule: func(after time.Time) time.Time { return after.Add(time.Hour) },
		Run:      func(context.Context) error { return nil },
	})

	m.Start()
	assert.True(t, m.IsRunning())

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.False(t, m.IsRunning())
}

func TestManagerStartTwiceAndStopWithoutStart(t *testing.T) {
	m := NewManager()
	m.Stop()
	assert.False(t, m.IsRunning())

	m.Start()
	m.Start()
	assert.True(t, m.IsRunning())
	m.Stop()
	assert.False(t, m.IsRunning())
}

func TestForJobsRegistersBothJobs(t *testing.T) {
	m := ForJobs(NewJobs(stubWeekly{}, stubChurn{}, nil, nil))
	var names []string
	for _, e := range m.entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{JobWeekly, JobChurn}, names)
}
