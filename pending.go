// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mflow

import (
	"fmt"
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/lfq"
	"go.uber.org/zap"
)

// PendingWrite is a LOW-priority write admitted but not yet copied into
// storage. It owns a private copy of the payload; once submitted, only the
// executor touches it.
type PendingWrite struct {
	Channel int
	Payload []byte
}

// pendingQueue is the subset of an lfq queue the executor uses.
type pendingQueue interface {
	Enqueue(elem *PendingWrite) error
	Dequeue() (PendingWrite, error)
}

// idlePoll bounds how long an idle worker sleeps between queue checks when
// no wake-up arrives.
const idlePoll = 5 * time.Millisecond

// shard is one worker and its bounded multi-producer single-consumer queue.
type shard struct {
	q    pendingQueue
	wake chan struct{}
}

// executor commits PendingWrites on background workers.
// Channel i is always served by shard i % len(shards), and the shard queue is
// filled under the LOW flow lock, so commits follow admission order per channel.
type executor struct {
	shards  []shard
	resolve func(index int) *FlowBuffer
	log     *zap.Logger

	inflight atomix.Uint32

	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
	wg      sync.WaitGroup
}

func newExecutor(workers, depth int, resolve func(int) *FlowBuffer, log *zap.Logger) *executor {
	x := &executor{
		shards:  make([]shard, workers),
		resolve: resolve,
		log:     log,
		done:    make(chan struct{}),
	}
	for i := range x.shards {
		x.shards[i] = shard{
			q:    lfq.BuildMPSC[PendingWrite](lfq.New(depth).SingleConsumer().Compact()),
			wake: make(chan struct{}, 1),
		}
	}
	x.wg.Add(workers)
	for i := range x.shards {
		go x.run(&x.shards[i])
	}
	return x
}

// submit hands w to the worker owning its channel. It never blocks.
// A full shard queue reports ErrNoScratch.
func (x *executor) submit(w PendingWrite) error {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.stopped {
		return ErrEngineClosed
	}
	sh := &x.shards[w.Channel%len(x.shards)]
	x.inflight.Add(1)
	if err := sh.q.Enqueue(&w); err != nil {
		x.inflight.Add(^uint32(0))
		if iox.IsWouldBlock(err) {
			return fmt.Errorf("%w: channel %d", ErrNoScratch, w.Channel)
		}
		return err
	}
	select {
	case sh.wake <- struct{}{}:
	default:
	}
	return nil
}

// pending returns the number of submitted writes not yet committed.
func (x *executor) pending() int {
	return int(x.inflight.Load())
}

func (x *executor) run(sh *shard) {
	defer x.wg.Done()
	poll := time.NewTicker(idlePoll)
	defer poll.Stop()
	for {
		w, err := sh.q.Dequeue()
		if err == nil {
			x.apply(w)
			continue
		}
		select {
		case <-x.done:
			x.drain(sh)
			return
		case <-sh.wake:
		case <-poll.C:
		}
	}
}

// drain commits everything left in sh. Called after submission has stopped.
func (x *executor) drain(sh *shard) {
	if d, ok := sh.q.(lfq.Drainer); ok {
		d.Drain()
	}
	for {
		w, err := sh.q.Dequeue()
		if err != nil {
			return
		}
		x.apply(w)
	}
}

func (x *executor) apply(w PendingWrite) {
	x.resolve(w.Channel).commit(w.Payload)
	x.inflight.Add(^uint32(0))
	x.log.Debug("deferred write executed",
		zap.Int("channel", w.Channel),
		zap.Int("bytes", len(w.Payload)))
}

// stop rejects further submissions, lets every worker drain its queue,
// and waits for them to exit.
func (x *executor) stop() {
	x.mu.Lock()
	if x.stopped {
		x.mu.Unlock()
		return
	}
	x.stopped = true
	x.mu.Unlock()
	close(x.done)
	x.wg.Wait()
}
