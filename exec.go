// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mflow

import (
	"code.hybscloud.com/kont"
)

// sessionHandler implements kont.Handler for session operations.
// Each operation runs with the session's blocking configuration; the first
// error aborts the script with Left.
// Value type: passed to evalFrames on the stack, avoiding heap allocation.
type sessionHandler[R any] struct {
	s *Session
}

// Dispatch implements kont.Handler via structural interface assertion.
func (h sessionHandler[R]) Dispatch(op kont.Operation) (kont.Resumed, bool) {
	sop, ok := op.(sessionDispatcher)
	if !ok {
		panic("mflow: unhandled effect in sessionHandler")
	}
	v, err := sop.ExecSession(h.s)
	if err != nil {
		return kont.Left[error, R](err), false
	}
	return v, true
}

// Exec runs a Cont-world script on s and returns its result.
// Reads and writes honor the session's blocking mode and timeout, so a
// timed-out read resumes the script with a short slice rather than failing.
// The first operation error stops the script and is returned.
func Exec[R any](s *Session, script kont.Eff[R]) (R, error) {
	wrapped := kont.Map[kont.Resumed, R, kont.Either[error, R]](script, func(r R) kont.Either[error, R] {
		return kont.Right[error, R](r)
	})
	return unwrap(kont.Handle(wrapped, sessionHandler[R]{s: s}))
}

// ExecExpr runs an Expr-world script on s. See Exec.
func ExecExpr[R any](s *Session, script kont.Expr[R]) (R, error) {
	wrapped := kont.ExprMap(script, func(r R) kont.Either[error, R] {
		return kont.Right[error, R](r)
	})
	return unwrap(kont.HandleExpr(wrapped, sessionHandler[R]{s: s}))
}

func unwrap[R any](e kont.Either[error, R]) (R, error) {
	if err, ok := e.GetLeft(); ok {
		var zero R
		return zero, err
	}
	r, _ := e.GetRight()
	return r, nil
}
