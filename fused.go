// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mflow

import (
	"time"

	"code.hybscloud.com/kont"
)

// WriteThen writes p and continues with next, discarding the count.
func WriteThen[B any](p []byte, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(Write{Data: p}), next)
}

// WriteBind writes p and passes the accepted count to f.
func WriteBind[B any](p []byte, f func(int) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Write{Data: p}), f)
}

// ReadBind reads up to n bytes and passes them to f.
func ReadBind[B any](n int, f func([]byte) kont.Eff[B]) kont.Eff[B] {
	return kont.Bind(kont.Perform(Read{Max: n}), f)
}

// SetFlowThen selects flow f and continues with next.
func SetFlowThen[B any](f Flow, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(SetFlow{Flow: f}), next)
}

// SetBlockingThen sets the blocking mode and continues with next.
func SetBlockingThen[B any](on bool, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(SetBlocking{Blocking: on}), next)
}

// SetTimeoutThen sets the timeout and continues with next.
func SetTimeoutThen[B any](d time.Duration, next kont.Eff[B]) kont.Eff[B] {
	return kont.Then(kont.Perform(SetTimeout{Timeout: d}), next)
}

// CloseDone closes the session and returns a.
func CloseDone[A any](a A) kont.Eff[A] {
	return kont.Then(kont.Perform(Close{}), kont.Pure(a))
}
