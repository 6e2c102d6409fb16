// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mflow

import (
	"bytes"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Session is one caller's handle to a Channel. It carries its own flow
// selection, blocking mode and timeout; the flows themselves are shared
// with every other session on the channel.
//
// A Session is owned by one goroutine: Read, Write and the setters must not
// run concurrently with each other. Close may be called from any goroutine
// and wakes an in-flight blocking call, which then returns the bytes moved
// so far.
type Session struct {
	engine *Engine
	ch     *Channel
	serial Serial
	log    *zap.Logger

	flow     Flow
	blocking bool
	timeout  time.Duration

	once sync.Once
	done chan struct{}
}

func newSession(e *Engine, c *Channel) *Session {
	s := &Session{
		engine:   e,
		ch:       c,
		serial:   e.nextSerial(),
		flow:     High,
		blocking: true,
		timeout:  e.timeout,
		done:     make(chan struct{}),
	}
	s.log = e.log.With(zap.Int("channel", c.index), zap.Uint32("session", s.serial))
	return s
}

// Index returns the channel the session is bound to.
func (s *Session) Index() int { return s.ch.index }

// Serial returns the session's serial number.
func (s *Session) Serial() Serial { return s.serial }

// Flow returns the selected flow.
func (s *Session) Flow() Flow { return s.flow }

// Blocking reports whether Read and Write wait for data or room.
func (s *Session) Blocking() bool { return s.blocking }

// Timeout returns the bound on a blocking wait.
func (s *Session) Timeout() time.Duration { return s.timeout }

// Config returns the current configuration with every field set.
func (s *Session) Config() Config {
	f, b, t := s.flow, s.blocking, s.timeout
	return Config{Flow: &f, Blocking: &b, Timeout: &t}
}

// SetFlow selects the flow used by subsequent Reads and Writes.
func (s *Session) SetFlow(f Flow) error {
	return s.Configure(FlowConfig(f))
}

// SetBlocking selects blocking or non-blocking mode.
func (s *Session) SetBlocking(on bool) error {
	return s.Configure(BlockingConfig(on))
}

// SetTimeout sets the bound on blocking waits. d must be positive.
func (s *Session) SetTimeout(d time.Duration) error {
	return s.Configure(TimeoutConfig(d))
}

// Configure applies every non-nil field of c. If any field is invalid
// nothing changes.
func (s *Session) Configure(c Config) error {
	if err := s.check(); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Flow != nil {
		s.flow = *c.Flow
	}
	if c.Blocking != nil {
		s.blocking = *c.Blocking
	}
	if c.Timeout != nil {
		s.timeout = *c.Timeout
	}
	s.log.Debug("session configured",
		zap.Stringer("flow", s.flow),
		zap.Bool("blocking", s.blocking),
		zap.Duration("timeout", s.timeout))
	return nil
}

// Read consumes up to len(p) bytes from the selected flow.
//
// In non-blocking mode Read makes one attempt and may return 0.
// In blocking mode Read keeps consuming until p is full or the session
// timeout elapses, whichever is first, and returns the count gathered.
// Neither an empty flow nor a timeout is an error.
// The reader counts toward WaitingReaders only while it is suspended.
func (s *Session) Read(p []byte) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	f := s.flow
	b := s.ch.flows[f]
	if !s.blocking || len(p) == 0 {
		return b.TryRead(p), nil
	}

	deadline := s.deadline()
	n := 0
	for n < len(p) {
		m, wait := b.readOrWait(p[n:])
		n += m
		if m > 0 {
			continue
		}
		s.ch.enterWait(f)
		ok := s.await(wait, deadline)
		s.ch.leaveWait(f)
		if !ok {
			s.log.Debug("read timeout elapsed", zap.Stringer("flow", f), zap.Int("bytes", n))
			break
		}
	}
	return n, nil
}

// Write stores p on the selected flow and returns the count accepted.
//
// HIGH writes copy into storage before returning. LOW writes reserve room,
// hand a private copy of the accepted prefix to the executor and return
// at once; the bytes become readable when the executor commits them.
//
// Either way a full flow yields a short or zero count, not an error. In
// blocking mode Write waits for room until the session timeout and then
// stores whatever prefix fits. ErrNoScratch reports that the executor could
// not take the LOW write.
func (s *Session) Write(p []byte) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if s.flow == Low {
		return s.writeLow(p, s.blocking)
	}
	return s.writeHigh(p, s.blocking)
}

// TryRead makes a single non-blocking read attempt regardless of the
// session's blocking mode.
func (s *Session) TryRead(p []byte) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	return s.ch.flows[s.flow].TryRead(p), nil
}

// TryWrite makes a single non-blocking write attempt regardless of the
// session's blocking mode.
func (s *Session) TryWrite(p []byte) (int, error) {
	if err := s.check(); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if s.flow == Low {
		return s.writeLow(p, false)
	}
	return s.writeHigh(p, false)
}

func (s *Session) writeHigh(p []byte, blocking bool) (int, error) {
	b := s.ch.flows[High]
	if !blocking {
		return b.TryWrite(p), nil
	}
	deadline := s.deadline()
	for {
		n, wait := b.writeOrWait(p)
		if n > 0 {
			return n, nil
		}
		if !s.await(wait, deadline) {
			s.log.Debug("write timeout elapsed", zap.Stringer("flow", High))
			return 0, nil
		}
	}
}

func (s *Session) writeLow(p []byte, blocking bool) (int, error) {
	b := s.ch.flows[Low]
	scratch := bytes.Clone(p)
	submit := func(n int) error {
		return s.engine.exec.submit(PendingWrite{Channel: s.ch.index, Payload: scratch[:n:n]})
	}

	var deadline time.Time
	if blocking {
		deadline = s.deadline()
	}
	for {
		n, wait, err := b.admitOrWait(len(scratch), submit)
		if err != nil {
			s.log.Warn("deferred write rejected", zap.Error(err))
			return 0, err
		}
		if n > 0 {
			return n, nil
		}
		if !blocking {
			return 0, nil
		}
		if !s.await(wait, deadline) {
			s.log.Debug("write timeout elapsed", zap.Stringer("flow", Low))
			return 0, nil
		}
	}
}

func (s *Session) deadline() time.Time {
	return s.engine.clock.Now().Add(s.timeout)
}

// await blocks until wait fires, deadline passes or the session closes.
// It reports whether the caller should retry.
func (s *Session) await(wait <-chan struct{}, deadline time.Time) bool {
	remaining := deadline.Sub(s.engine.clock.Now())
	if remaining <= 0 {
		return false
	}
	t := s.engine.clock.Timer(remaining)
	defer t.Stop()
	select {
	case <-wait:
		return true
	case <-t.C:
		return false
	case <-s.done:
		return false
	}
}

func (s *Session) check() error {
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
		return nil
	}
}

// Close releases the session. LOW writes it already had admitted are still
// committed. Closing twice returns ErrSessionClosed.
func (s *Session) Close() error {
	if !s.shut() {
		return ErrSessionClosed
	}
	s.engine.forget(s)
	s.log.Debug("session closed")
	return nil
}

// shut marks the session closed and wakes any blocked call.
// It reports whether this call did the closing.
func (s *Session) shut() bool {
	first := false
	s.once.Do(func() {
		close(s.done)
		first = true
	})
	return first
}
