// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mflow

import (
	"code.hybscloud.com/iox"
	"code.hybscloud.com/kont"
)

// RunPair runs script a on session sa and script b on session sb,
// interleaving both on the calling goroutine. Each operation is dispatched
// without blocking; when neither side can make progress RunPair waits with
// adaptive backoff (iox.Backoff). Does not spawn goroutines.
//
// A typical pair is a producer and a consumer on the same channel and flow.
// RunPair returns when both scripts complete, or with the first error other
// than iox.ErrWouldBlock.
func RunPair[A, B any](sa *Session, a kont.Expr[A], sb *Session, b kont.Expr[B]) (A, B, error) {
	resultA, suspA := Step[A](a)
	resultB, suspB := Step[B](b)
	var bo iox.Backoff
	for suspA != nil || suspB != nil {
		progress := false
		if suspA != nil {
			var err error
			resultA, suspA, err = Advance(sa, suspA)
			switch {
			case err == nil:
				progress = true
			case !iox.IsWouldBlock(err):
				suspA.Discard()
				if suspB != nil {
					suspB.Discard()
				}
				return resultA, resultB, err
			}
		}
		if suspB != nil {
			var err error
			resultB, suspB, err = Advance(sb, suspB)
			switch {
			case err == nil:
				progress = true
			case !iox.IsWouldBlock(err):
				suspB.Discard()
				if suspA != nil {
					suspA.Discard()
				}
				return resultA, resultB, err
			}
		}
		if !progress {
			bo.Wait()
		} else {
			bo.Reset()
		}
	}
	return resultA, resultB, nil
}

// RunPairEff is RunPair for Cont-world scripts.
func RunPairEff[A, B any](sa *Session, a kont.Eff[A], sb *Session, b kont.Eff[B]) (A, B, error) {
	return RunPair(sa, Reify(a), sb, Reify(b))
}
