// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mflow_test

import (
	"testing"
	"time"

	"code.hybscloud.com/kont"
	"code.hybscloud.com/mflow"
)

// newEngine builds an Engine that is shut down when the test ends.
func newEngine(tb testing.TB, opts ...mflow.Option) *mflow.Engine {
	tb.Helper()
	e, err := mflow.New(opts...)
	if err != nil {
		tb.Fatalf("New: %v", err)
	}
	tb.Cleanup(func() { _ = e.Shutdown() })
	return e
}

// open opens channel index or fails the test.
func open(tb testing.TB, e *mflow.Engine, index int) *mflow.Session {
	tb.Helper()
	s, err := e.Open(index)
	if err != nil {
		tb.Fatalf("Open(%d): %v", index, err)
	}
	return s
}

// settle waits until every admitted LOW write has been committed.
func settle(tb testing.TB, e *mflow.Engine) {
	tb.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for e.PendingWrites() != 0 {
		if time.Now().After(deadline) {
			tb.Fatalf("pending writes did not drain: %d left", e.PendingWrites())
		}
		time.Sleep(time.Millisecond)
	}
}

// execExpr drives a script to completion on s via Step+Advance loop.
// Retries on iox.ErrWouldBlock (flow empty or full).
func execExpr[R any](s *mflow.Session, script kont.Expr[R]) R {
	result, susp := mflow.Step[R](script)
	for susp != nil {
		var err error
		result, susp, err = mflow.Advance(s, susp)
		if err != nil {
			continue
		}
	}
	return result
}
