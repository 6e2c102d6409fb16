// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mflow

import (
	"time"

	"code.hybscloud.com/kont"
)

// Pre-boxed values shared by every Expr-world script.
var (
	exprReturnFrame kont.Frame  = kont.ReturnFrame{}
	exprClose       kont.Erased = Close{}
)

// identityResume is the identity resume function for EffectFrame construction.
func identityResume(v kont.Erased) kont.Erased { return v }

// exprThen suspends on op and continues with next, discarding op's result.
func exprThen[B any](op kont.Erased, next kont.Expr[B]) kont.Expr[B] {
	tf := kont.AcquireThenFrame()
	tf.Second = kont.Expr[kont.Erased]{Value: kont.Erased(next.Value), Frame: next.Frame}
	tf.Next = exprReturnFrame
	ef := kont.AcquireEffectFrame()
	ef.Operation = op
	ef.Resume = identityResume
	ef.Next = tf
	return kont.ExprSuspend[B](ef)
}

func bindUnwind[T, B any](data, _, _ kont.Erased, current kont.Erased) (kont.Erased, kont.Frame) {
	f := data.(func(T) kont.Expr[B])
	result := f(current.(T))
	return kont.Erased(result.Value), result.Frame
}

// exprBind suspends on op and passes its result to f.
func exprBind[T, B any](op kont.Erased, f func(T) kont.Expr[B]) kont.Expr[B] {
	bf := kont.AcquireUnwindFrame()
	bf.Data1 = f
	bf.Unwind = bindUnwind[T, B]
	ef := kont.AcquireEffectFrame()
	ef.Operation = op
	ef.Resume = identityResume
	ef.Next = bf
	return kont.ExprSuspend[B](ef)
}

// ExprWriteThen writes p and continues with next, discarding the count.
func ExprWriteThen[B any](p []byte, next kont.Expr[B]) kont.Expr[B] {
	return exprThen(Write{Data: p}, next)
}

// ExprWriteBind writes p and passes the accepted count to f.
func ExprWriteBind[B any](p []byte, f func(int) kont.Expr[B]) kont.Expr[B] {
	return exprBind(Write{Data: p}, f)
}

// ExprReadBind reads up to n bytes and passes them to f.
func ExprReadBind[B any](n int, f func([]byte) kont.Expr[B]) kont.Expr[B] {
	return exprBind(Read{Max: n}, f)
}

// ExprSetFlowThen selects flow f and continues with next.
func ExprSetFlowThen[B any](f Flow, next kont.Expr[B]) kont.Expr[B] {
	return exprThen(SetFlow{Flow: f}, next)
}

// ExprSetBlockingThen sets the blocking mode and continues with next.
func ExprSetBlockingThen[B any](on bool, next kont.Expr[B]) kont.Expr[B] {
	return exprThen(SetBlocking{Blocking: on}, next)
}

// ExprSetTimeoutThen sets the timeout and continues with next.
func ExprSetTimeoutThen[B any](d time.Duration, next kont.Expr[B]) kont.Expr[B] {
	return exprThen(SetTimeout{Timeout: d}, next)
}

// ExprCloseDone closes the session and returns a.
func ExprCloseDone[A any](a A) kont.Expr[A] {
	return exprThen(exprClose, kont.Expr[A]{Value: a, Frame: exprReturnFrame})
}
