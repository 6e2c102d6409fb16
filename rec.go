// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mflow

import (
	"code.hybscloud.com/kont"
)

// Loop runs a recursive script (Cont-world).
// step returns Left(nextState) to continue or Right(result) to finish.
func Loop[S, A any](initial S, step func(S) kont.Eff[kont.Either[S, A]]) kont.Eff[A] {
	return kont.Bind(step(initial), func(e kont.Either[S, A]) kont.Eff[A] {
		if next, ok := e.GetLeft(); ok {
			return Loop(next, step)
		}
		result, _ := e.GetRight()
		return kont.Pure(result)
	})
}

// Drain reads chunks of up to chunk bytes until a read comes back empty
// and returns everything gathered, in flow order.
// Under Exec a blocking session ends the drain after one timeout with no data.
// Under RunPair an empty read is retried, so Drain there never completes.
func Drain(chunk int) kont.Eff[[]byte] {
	return Loop([]byte(nil), func(acc []byte) kont.Eff[kont.Either[[]byte, []byte]] {
		return ReadBind(chunk, func(p []byte) kont.Eff[kont.Either[[]byte, []byte]] {
			if len(p) == 0 {
				return kont.Pure(kont.Right[[]byte, []byte](acc))
			}
			return kont.Pure(kont.Left[[]byte, []byte](append(acc, p...)))
		})
	})
}

// ExprLoop runs a recursive script (Expr-world).
// step returns Left(nextState) to continue or Right(result) to finish.
// A step that completes without performing an operation is unrolled
// in place instead of chaining a frame.
func ExprLoop[S, A any](initial S, step func(S) kont.Expr[kont.Either[S, A]]) kont.Expr[A] {
	m := step(initial)
	if _, ok := m.Frame.(kont.ReturnFrame); ok {
		if next, ok := m.Value.GetLeft(); ok {
			return ExprLoop(next, step)
		}
		result, _ := m.Value.GetRight()
		return kont.ExprReturn(result)
	}
	bf := kont.AcquireBindFrame()
	bf.F = func(a kont.Erased) kont.Expr[kont.Erased] {
		e := a.(kont.Either[S, A])
		if next, ok := e.GetLeft(); ok {
			more := ExprLoop(next, step)
			return kont.Expr[kont.Erased]{Value: kont.Erased(more.Value), Frame: more.Frame}
		}
		result, _ := e.GetRight()
		return kont.Expr[kont.Erased]{Value: kont.Erased(result), Frame: kont.ReturnFrame{}}
	}
	bf.Next = kont.ReturnFrame{}
	var zero A
	return kont.Expr[A]{Value: zero, Frame: kont.ChainFrames(m.Frame, bf)}
}

// ExprDrain is Drain in the Expr world.
func ExprDrain(chunk int) kont.Expr[[]byte] {
	return ExprLoop([]byte(nil), func(acc []byte) kont.Expr[kont.Either[[]byte, []byte]] {
		return ExprReadBind(chunk, func(p []byte) kont.Expr[kont.Either[[]byte, []byte]] {
			if len(p) == 0 {
				return kont.ExprReturn(kont.Right[[]byte, []byte](acc))
			}
			return kont.ExprReturn(kont.Left[[]byte, []byte](append(acc, p...)))
		})
	})
}
