// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mflow

import "code.hybscloud.com/atomix"

// Channels is the number of independently addressable channels.
const Channels = 128

// Channel holds the two flows of one device and the per-flow count of
// readers blocked waiting for data.
//
// A Channel lives as long as its Engine. The enabled flag gates Open only;
// disabling a channel does not affect sessions already open on it.
type Channel struct {
	index   int
	enabled atomix.Uint32
	flows   [flowCount]*FlowBuffer
	waiting [flowCount]atomix.Uint32
}

func (c *Channel) init(index, capacity int, enabled bool) {
	c.index = index
	c.flows[High] = NewFlowBuffer(capacity)
	c.flows[Low] = NewFlowBuffer(capacity)
	c.setEnabled(enabled)
}

// Index returns the channel number in [0, Channels).
func (c *Channel) Index() int {
	return c.index
}

// Enabled reports whether new sessions may be opened.
func (c *Channel) Enabled() bool {
	return c.enabled.Load() != 0
}

func (c *Channel) setEnabled(on bool) {
	var v uint32
	if on {
		v = 1
	}
	c.enabled.Store(v)
}

// Buffer returns the FlowBuffer backing f.
func (c *Channel) Buffer(f Flow) *FlowBuffer {
	return c.flows[f]
}

// WaitingReaders returns the number of blocking reads in progress on f.
func (c *Channel) WaitingReaders(f Flow) int {
	return int(c.waiting[f].Load())
}

// enterWait and leaveWait bracket each suspension of a blocking read.
// They are always paired.
func (c *Channel) enterWait(f Flow) {
	c.waiting[f].Add(1)
}

func (c *Channel) leaveWait(f Flow) {
	c.waiting[f].Add(^uint32(0))
}
