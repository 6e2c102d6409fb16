// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mflow provides a dual-flow multi-channel byte engine.
//
// An [Engine] owns [Channels] channels. Each channel carries two independent
// circular byte flows, [High] and [Low], of fixed capacity ([DefaultCapacity]
// unless set with [WithCapacity]). Callers reach a channel through a
// [Session], which selects a flow, a blocking mode and a timeout.
//
// # Flows
//
//   - HIGH: [Session.Write] copies into storage before returning.
//   - LOW: [Session.Write] reserves capacity and returns at once; an executor
//     of sharded workers over [code.hybscloud.com/lfq] queues copies the
//     bytes later, in admission order per channel.
//   - Short counts: a full flow accepts a prefix or nothing, an empty flow
//     yields nothing. Neither is an error.
//   - Blocking: reads and writes wait at most the session timeout
//     ([DefaultTimeout] by default). Blocked readers are counted per flow,
//     see [Engine.WaitingReaders].
//
// # Errors
//
// [ErrInvalidChannel], [ErrChannelDisabled], [ErrInvalidArgument] and
// [ErrNoScratch] are returned wrapped; test with [errors.Is].
//
// # Scripts
//
// Session traffic can also be written as effect scripts on
// [code.hybscloud.com/kont]:
//
//   - Operations: [Read], [Write], [SetFlow], [SetBlocking], [SetTimeout], [Close].
//   - Cont-world: [WriteThen], [WriteBind], [ReadBind], [CloseDone], [Loop], [Drain].
//   - Expr-world: [ExprWriteThen], [ExprReadBind], [ExprLoop], [ExprDrain], etc. Bridge via [Reify] and [Reflect].
//   - Execution: [Exec] and [ExecExpr] follow the session configuration.
//     [Step] and [Advance] dispatch one operation at a time without
//     blocking, returning [code.hybscloud.com/iox.ErrWouldBlock] on an
//     empty or full flow. [RunPair] interleaves two scripts with adaptive
//     backoff.
//
// # Example
//
//	e, _ := mflow.New()
//	defer e.Shutdown()
//	w, _ := e.Open(3)
//	r, _ := e.Open(3)
//	script := mflow.ExprWriteThen([]byte("ping"), mflow.ExprCloseDone(struct{}{}))
//	_, _, err := mflow.RunPair(w, script, r, mflow.ExprReadBind(4, func(p []byte) kont.Expr[string] {
//		return kont.ExprReturn(string(p))
//	}))
package mflow
