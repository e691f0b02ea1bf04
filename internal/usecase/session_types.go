package usecase

import (
	"sync"

	"tunesphere/internal/domain"
)

// activation is one run of the capture loop, from Start until it is
// stopped or a mood is chosen.
type activation struct {
	id     string
	cancel func()
	done   chan struct{}

	stateMu sync.Mutex
	state   domain.DetectionState
}

func newActivation(id string, cancel func()) *activation {
	return &activation{
		id:     id,
		cancel: cancel,
		done:   make(chan struct{}),
		state:  domain.DetectionStateSearching,
	}
}

func (a *activation) setState(state domain.DetectionState) {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	a.state = state
}

func (a *activation) getState() domain.DetectionState {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	return a.state
}

// lock moves searching to locked. Only the first caller wins.
func (a *activation) lock() bool {
	a.stateMu.Lock()
	defer a.stateMu.Unlock()
	if a.state != domain.DetectionStateSearching {
		return false
	}
	a.state = domain.DetectionStateLocked
	return true
}
