package pointer

import (
	"sync"
	"time"
)

// IntervalScheduler approximates display refresh callbacks with timers for hosts that have no
// compositor.
type IntervalScheduler struct {
	interval time.Duration

	mu     sync.Mutex
	nextID FrameID
	timers map[FrameID]*time.Timer
}

func NewIntervalScheduler(interval time.Duration) *IntervalScheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &IntervalScheduler{
		interval: interval,
		timers:   make(map[FrameID]*time.Timer),
	}
}

func (s *IntervalScheduler) RequestFrame(fn func()) FrameID {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.timers[id] = time.AfterFunc(s.interval, func() {
		s.mu.Lock()
		_, live := s.timers[id]
		delete(s.timers, id)
		s.mu.Unlock()
		if live {
			fn()
		}
	})
	return id
}

func (s *IntervalScheduler) CancelFrame(id FrameID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.timers[id]; ok {
		timer.Stop()
		delete(s.timers, id)
	}
}

// Pending reports how many callbacks are scheduled and not yet run or cancelled.
func (s *IntervalScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
