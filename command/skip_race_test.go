// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package command_test

import "testing"

// skipRace skips tests that drive LOW writes through the lfq executor.
// The race detector cannot see the queue's cross-variable memory ordering
// and reports false positives.
func skipRace(tb testing.TB) {
	tb.Helper()
	tb.Skip("skip: lfq MPSC uses cross-variable memory ordering")
}
