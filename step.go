// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mflow

import (
	"code.hybscloud.com/kont"
)

// Step evaluates a session script until its first operation.
// Returns (result, nil) on completion, or (zero, suspension) if pending.
func Step[R any](script kont.Expr[R]) (R, *kont.Suspension[R]) {
	return kont.StepExpr(script)
}

// Advance dispatches the suspended operation on s without blocking.
//
// On success (nil error) the suspension is consumed and the script
// advances to its next operation or completes.
// On iox.ErrWouldBlock (empty flow for a read, full flow for a write) the
// suspension is returned unconsumed and may be retried after other
// sessions make progress. Any other error (ErrSessionClosed,
// ErrNoScratch, ErrInvalidArgument) also leaves the suspension unconsumed;
// the caller decides whether to retry or Discard it.
func Advance[R any](s *Session, susp *kont.Suspension[R]) (R, *kont.Suspension[R], error) {
	sop, ok := susp.Op().(sessionDispatcher)
	if !ok {
		panic("mflow: unhandled effect in Advance")
	}
	v, err := sop.DispatchSession(s)
	if err != nil {
		var zero R
		return zero, susp, err
	}
	result, next := susp.Resume(v)
	return result, next, nil
}
