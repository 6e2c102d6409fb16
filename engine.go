// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mflow

import (
	"fmt"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Engine owns the table of Channels and the deferred-write executor.
// All sessions are opened through an Engine; there is no package-level state.
type Engine struct {
	channels [Channels]Channel
	exec     *executor
	log      *zap.Logger
	clock    clock.Clock
	timeout  time.Duration

	serials atomix.Uint32
	closed  atomix.Uint32

	mu       sync.Mutex
	sessions map[Serial]*Session
}

// ChannelStat is a point-in-time view of one channel. Fields are read one
// at a time and are not mutually consistent under concurrent traffic.
type ChannelStat struct {
	Index       int
	Enabled     bool
	HighBytes   int
	LowBytes    int
	HighWaiting int
	LowWaiting  int
}

// New builds an Engine with Channels channels and starts its executor.
func New(opts ...Option) (*Engine, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		log:      o.logger.Named("mflow"),
		clock:    o.clock,
		timeout:  o.timeout,
		sessions: make(map[Serial]*Session),
	}
	for i := range e.channels {
		e.channels[i].init(i, o.capacity, true)
	}
	for _, i := range o.disabled {
		e.channels[i].setEnabled(false)
	}
	e.exec = newExecutor(o.workers, o.queueDepth, func(i int) *FlowBuffer {
		return e.channels[i].flows[Low]
	}, e.log)

	e.log.Info("engine started",
		zap.Int("channels", Channels),
		zap.Int("capacity", o.capacity),
		zap.Int("workers", o.workers))
	return e, nil
}

// Channel returns channel index.
func (e *Engine) Channel(index int) (*Channel, error) {
	if index < 0 || index >= Channels {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChannel, index)
	}
	return &e.channels[index], nil
}

// Open creates a session on channel index with the default configuration:
// HIGH flow, blocking, the engine's default timeout.
func (e *Engine) Open(index int) (*Session, error) {
	c, err := e.Channel(index)
	if err != nil {
		e.log.Warn("open rejected", zap.Int("channel", index), zap.Error(err))
		return nil, err
	}
	if !c.Enabled() {
		e.log.Warn("open rejected", zap.Int("channel", index), zap.Error(ErrChannelDisabled))
		return nil, fmt.Errorf("%w: %d", ErrChannelDisabled, index)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed.Load() != 0 {
		return nil, ErrEngineClosed
	}
	s := newSession(e, c)
	e.sessions[s.serial] = s
	e.log.Debug("session opened", zap.Int("channel", index), zap.Uint32("session", s.serial))
	return s, nil
}

// forget drops a closed session from the registry.
func (e *Engine) forget(s *Session) {
	e.mu.Lock()
	delete(e.sessions, s.serial)
	e.mu.Unlock()
}

// SetEnabled enables or disables new opens on channel index.
func (e *Engine) SetEnabled(index int, on bool) error {
	c, err := e.Channel(index)
	if err != nil {
		return err
	}
	c.setEnabled(on)
	e.log.Info("channel state changed", zap.Int("channel", index), zap.Bool("enabled", on))
	return nil
}

// Enabled reports whether channel index accepts new sessions.
func (e *Engine) Enabled(index int) (bool, error) {
	c, err := e.Channel(index)
	if err != nil {
		return false, err
	}
	return c.Enabled(), nil
}

// BytesAvailable returns the occupancy of flow f on channel index,
// including LOW bytes admitted but not yet committed.
func (e *Engine) BytesAvailable(index int, f Flow) (int, error) {
	c, err := e.Channel(index)
	if err != nil {
		return 0, err
	}
	if !f.Valid() {
		return 0, fmt.Errorf("%w: flow %d", ErrInvalidArgument, f)
	}
	return c.flows[f].Len(), nil
}

// WaitingReaders returns the number of blocking reads in progress on
// flow f of channel index.
func (e *Engine) WaitingReaders(index int, f Flow) (int, error) {
	c, err := e.Channel(index)
	if err != nil {
		return 0, err
	}
	if !f.Valid() {
		return 0, fmt.Errorf("%w: flow %d", ErrInvalidArgument, f)
	}
	return c.WaitingReaders(f), nil
}

// Stat returns a snapshot of channel index.
func (e *Engine) Stat(index int) (ChannelStat, error) {
	c, err := e.Channel(index)
	if err != nil {
		return ChannelStat{}, err
	}
	return c.stat(), nil
}

// Stats returns a snapshot of every channel, in index order.
func (e *Engine) Stats() []ChannelStat {
	out := make([]ChannelStat, Channels)
	for i := range e.channels {
		out[i] = e.channels[i].stat()
	}
	return out
}

func (c *Channel) stat() ChannelStat {
	return ChannelStat{
		Index:       c.index,
		Enabled:     c.Enabled(),
		HighBytes:   c.flows[High].Len(),
		LowBytes:    c.flows[Low].Len(),
		HighWaiting: c.WaitingReaders(High),
		LowWaiting:  c.WaitingReaders(Low),
	}
}

// PendingWrites returns the number of admitted LOW writes not yet committed.
func (e *Engine) PendingWrites() int {
	return e.exec.pending()
}

// Shutdown closes every open session, commits all admitted LOW writes and
// stops the executor. Later Opens fail with ErrEngineClosed.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	if e.closed.Load() != 0 {
		e.mu.Unlock()
		return ErrEngineClosed
	}
	e.closed.Store(1)
	open := make([]*Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		open = append(open, s)
	}
	e.mu.Unlock()

	for _, s := range open {
		s.shut()
	}
	e.exec.stop()
	e.log.Info("engine stopped", zap.Int("sessions_closed", len(open)))
	return nil
}
