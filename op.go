// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mflow

import (
	"time"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// sessionDispatcher is the structural interface for script operations.
//
// DispatchSession is non-blocking: a read or write that moves no bytes
// returns iox.ErrWouldBlock so a stepping loop can retry it later.
// ExecSession follows the session's own blocking mode and timeout and
// never returns iox.ErrWouldBlock.
type sessionDispatcher interface {
	DispatchSession(s *Session) (kont.Resumed, error)
	ExecSession(s *Session) (kont.Resumed, error)
}

// Read is the effect operation for reading up to Max bytes.
// Perform(Read{Max: n}) resumes with the bytes consumed.
type Read struct {
	kont.Phantom[[]byte]
	Max int
}

// DispatchSession makes one non-blocking read attempt.
// Returns iox.ErrWouldBlock if the flow is empty.
func (r Read) DispatchSession(s *Session) (kont.Resumed, error) {
	p := make([]byte, r.Max)
	n, err := s.TryRead(p)
	if err != nil {
		return nil, err
	}
	if n == 0 && r.Max > 0 {
		return nil, iox.ErrWouldBlock
	}
	return p[:n], nil
}

// ExecSession reads per the session configuration. A timeout resumes with
// a short or empty slice.
func (r Read) ExecSession(s *Session) (kont.Resumed, error) {
	p := make([]byte, r.Max)
	n, err := s.Read(p)
	if err != nil {
		return nil, err
	}
	return p[:n], nil
}

// Write is the effect operation for writing Data.
// Perform(Write{Data: p}) resumes with the count accepted.
type Write struct {
	kont.Phantom[int]
	Data []byte
}

// DispatchSession makes one non-blocking write attempt.
// Returns iox.ErrWouldBlock if the flow is full.
func (w Write) DispatchSession(s *Session) (kont.Resumed, error) {
	n, err := s.TryWrite(w.Data)
	if err != nil {
		return nil, err
	}
	if n == 0 && len(w.Data) > 0 {
		return nil, iox.ErrWouldBlock
	}
	return n, nil
}

// ExecSession writes per the session configuration.
func (w Write) ExecSession(s *Session) (kont.Resumed, error) {
	n, err := s.Write(w.Data)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// SetFlow is the effect operation for selecting a flow. Never blocks.
type SetFlow struct {
	kont.Phantom[struct{}]
	Flow Flow
}

// DispatchSession applies the flow selection.
func (o SetFlow) DispatchSession(s *Session) (kont.Resumed, error) {
	if err := s.SetFlow(o.Flow); err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

// ExecSession applies the flow selection.
func (o SetFlow) ExecSession(s *Session) (kont.Resumed, error) {
	return o.DispatchSession(s)
}

// SetBlocking is the effect operation for switching blocking mode. Never blocks.
type SetBlocking struct {
	kont.Phantom[struct{}]
	Blocking bool
}

// DispatchSession applies the blocking mode.
func (o SetBlocking) DispatchSession(s *Session) (kont.Resumed, error) {
	if err := s.SetBlocking(o.Blocking); err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

// ExecSession applies the blocking mode.
func (o SetBlocking) ExecSession(s *Session) (kont.Resumed, error) {
	return o.DispatchSession(s)
}

// SetTimeout is the effect operation for changing the wait bound. Never blocks.
type SetTimeout struct {
	kont.Phantom[struct{}]
	Timeout time.Duration
}

// DispatchSession applies the timeout. A non-positive timeout fails with
// ErrInvalidArgument.
func (o SetTimeout) DispatchSession(s *Session) (kont.Resumed, error) {
	if err := s.SetTimeout(o.Timeout); err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

// ExecSession applies the timeout.
func (o SetTimeout) ExecSession(s *Session) (kont.Resumed, error) {
	return o.DispatchSession(s)
}

// Close is the effect operation for closing the session.
type Close struct {
	kont.Phantom[struct{}]
}

// DispatchSession closes the session. Never blocks.
func (Close) DispatchSession(s *Session) (kont.Resumed, error) {
	if err := s.Close(); err != nil {
		return nil, err
	}
	return struct{}{}, nil
}

// ExecSession closes the session.
func (c Close) ExecSession(s *Session) (kont.Resumed, error) {
	return c.DispatchSession(s)
}
