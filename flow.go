// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mflow

import (
	"fmt"
	"strings"
	"sync"
)

// Flow selects one of the two byte streams of a channel.
// The numeric values match the priority switch of the character device
// this engine models: 0 is LOW, 1 is HIGH.
type Flow uint8

const (
	// Low is the deferred-write flow. Writes are admitted synchronously
	// and copied into storage by the executor.
	Low Flow = iota
	// High is the synchronous-write flow.
	High
)

// flowCount is the number of flows per channel.
const flowCount = 2

// String returns "high" or "low".
func (f Flow) String() string {
	switch f {
	case High:
		return "high"
	case Low:
		return "low"
	}
	return fmt.Sprintf("flow(%d)", uint8(f))
}

// Valid reports whether f is High or Low.
func (f Flow) Valid() bool {
	return f == High || f == Low
}

// ParseFlow parses "high"/"low" (case-insensitive) or "1"/"0".
func ParseFlow(s string) (Flow, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "1":
		return High, nil
	case "low", "0":
		return Low, nil
	}
	return 0, fmt.Errorf("%w: flow %q", ErrInvalidArgument, s)
}

// DefaultCapacity is the per-flow storage size: one page.
const DefaultCapacity = 4096

// FlowBuffer is a fixed-capacity circular byte buffer holding one flow of
// one channel.
//
// Occupancy is tracked by counters, not cursor subtraction, so empty and
// full are unambiguous. readable counts committed bytes that readers may
// consume; reserved counts bytes admitted for a deferred write whose copy
// has not run yet. Both count against capacity.
//
// All state is guarded by mu. The lock is held only for the data movement
// itself, never across a wait. Waiters block on dataReady or spaceReady,
// which are closed and replaced on every state change that may satisfy them.
type FlowBuffer struct {
	mu       sync.Mutex
	storage  []byte
	rd       int
	wr       int
	readable int
	reserved int

	dataReady  chan struct{}
	spaceReady chan struct{}
}

// NewFlowBuffer returns an empty buffer of the given capacity.
// It panics if capacity is not positive.
func NewFlowBuffer(capacity int) *FlowBuffer {
	if capacity <= 0 {
		panic("mflow: flow capacity must be positive")
	}
	return &FlowBuffer{
		storage:    make([]byte, capacity),
		dataReady:  make(chan struct{}),
		spaceReady: make(chan struct{}),
	}
}

// Cap returns the fixed capacity.
func (b *FlowBuffer) Cap() int {
	return len(b.storage)
}

// Len returns the occupancy: committed plus admitted-but-uncommitted bytes.
func (b *FlowBuffer) Len() int {
	b.mu.Lock()
	n := b.readable + b.reserved
	b.mu.Unlock()
	return n
}

// Readable returns the number of committed bytes a reader can consume now.
func (b *FlowBuffer) Readable() int {
	b.mu.Lock()
	n := b.readable
	b.mu.Unlock()
	return n
}

// Free returns capacity minus occupancy.
func (b *FlowBuffer) Free() int {
	b.mu.Lock()
	n := b.free()
	b.mu.Unlock()
	return n
}

// TryWrite appends up to len(p) bytes and returns the count accepted.
// A full buffer accepts 0 bytes; a short count is not an error.
func (b *FlowBuffer) TryWrite(p []byte) int {
	n, _ := b.writeOrWait(p)
	return n
}

// TryRead consumes up to len(p) committed bytes into p and returns the count.
// An empty buffer returns 0 immediately.
func (b *FlowBuffer) TryRead(p []byte) int {
	n, _ := b.readOrWait(p)
	return n
}

// writeOrWait is TryWrite that also returns the channel to wait on for room
// when nothing was accepted. The channel is taken under the same lock as the
// failed attempt, so a release between the two cannot be missed.
func (b *FlowBuffer) writeOrWait(p []byte) (int, <-chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := min(len(p), b.free())
	if n == 0 {
		return 0, b.spaceReady
	}
	b.put(p[:n])
	b.readable += n
	b.signalData()
	return n, nil
}

// readOrWait is TryRead that also returns the channel to wait on for data
// when nothing was read.
func (b *FlowBuffer) readOrWait(p []byte) (int, <-chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := min(len(p), b.readable)
	if n == 0 {
		return 0, b.dataReady
	}
	seg := min(n, len(b.storage)-b.rd)
	copy(p[:seg], b.storage[b.rd:])
	copy(p[seg:n], b.storage[:n-seg])
	b.rd = (b.rd + n) % len(b.storage)
	b.readable -= n
	b.signalSpace()
	return n, nil
}

// admitOrWait reserves up to want bytes of capacity for a deferred write.
// submit runs under the lock with the reserved count, so submissions
// for one flow are ordered exactly as their reservations. If submit fails
// the reservation is undone and its error returned.
func (b *FlowBuffer) admitOrWait(want int, submit func(n int) error) (int, <-chan struct{}, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := min(want, b.free())
	if n == 0 {
		return 0, b.spaceReady, nil
	}
	if err := submit(n); err != nil {
		return 0, nil, err
	}
	b.reserved += n
	return n, nil, nil
}

// commit copies a previously admitted payload into storage. The capacity was
// charged at admission, so occupancy does not change; the bytes move from
// reserved to readable.
func (b *FlowBuffer) commit(p []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(p) > b.reserved {
		panic("mflow: commit exceeds reservation")
	}
	b.put(p)
	b.reserved -= len(p)
	b.readable += len(p)
	b.signalData()
}

// put copies p at the write cursor, wrapping at most once.
// Caller holds mu and has checked capacity.
func (b *FlowBuffer) put(p []byte) {
	n := len(p)
	seg := min(n, len(b.storage)-b.wr)
	copy(b.storage[b.wr:], p[:seg])
	copy(b.storage, p[seg:])
	b.wr = (b.wr + n) % len(b.storage)
}

func (b *FlowBuffer) free() int {
	return len(b.storage) - b.readable - b.reserved
}

// signalData wakes every reader waiting on this flow. Caller holds mu.
func (b *FlowBuffer) signalData() {
	close(b.dataReady)
	b.dataReady = make(chan struct{})
}

// signalSpace wakes every writer waiting for room on this flow. Caller holds mu.
func (b *FlowBuffer) signalSpace() {
	close(b.spaceReady)
	b.spaceReady = make(chan struct{})
}
