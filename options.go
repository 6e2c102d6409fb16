// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mflow

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// DefaultTimeout is the blocking timeout of a newly opened session.
const DefaultTimeout = 200 * time.Millisecond

const (
	defaultWorkers    = 4
	defaultQueueDepth = 1024
)

// Option configures an Engine. Options are applied in order by New;
// the first invalid option aborts construction.
type Option func(*options) error

type options struct {
	capacity   int
	workers    int
	queueDepth int
	timeout    time.Duration
	logger     *zap.Logger
	clock      clock.Clock
	disabled   []int
}

func defaultOptions() options {
	return options{
		capacity:   DefaultCapacity,
		workers:    defaultWorkers,
		queueDepth: defaultQueueDepth,
		timeout:    DefaultTimeout,
		logger:     zap.NewNop(),
		clock:      clock.New(),
	}
}

// WithCapacity sets the storage size of every flow.
func WithCapacity(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("%w: capacity %d", ErrInvalidArgument, n)
		}
		o.capacity = n
		return nil
	}
}

// WithWorkers sets the number of deferred-write workers. Channels are
// sharded across workers by index, so LOW writes to one channel are always
// committed by the same worker in admission order.
func WithWorkers(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("%w: workers %d", ErrInvalidArgument, n)
		}
		o.workers = n
		return nil
	}
}

// WithQueueDepth bounds the pending writes each worker can hold.
// Admission beyond the bound fails with ErrNoScratch.
// The queue rounds the depth up to a power of two.
func WithQueueDepth(n int) Option {
	return func(o *options) error {
		if n < 2 {
			return fmt.Errorf("%w: queue depth %d", ErrInvalidArgument, n)
		}
		o.queueDepth = n
		return nil
	}
}

// WithDefaultTimeout sets the timeout new sessions start with.
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return fmt.Errorf("%w: timeout %v", ErrInvalidArgument, d)
		}
		o.timeout = d
		return nil
	}
}

// WithLogger sets the audit logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) error {
		if l == nil {
			l = zap.NewNop()
		}
		o.logger = l
		return nil
	}
}

// WithClock sets the time source used for deadlines and wait timers.
func WithClock(c clock.Clock) Option {
	return func(o *options) error {
		if c == nil {
			return fmt.Errorf("%w: nil clock", ErrInvalidArgument)
		}
		o.clock = c
		return nil
	}
}

// WithDisabled starts the given channels disabled. All others start enabled.
func WithDisabled(indices ...int) Option {
	return func(o *options) error {
		for _, i := range indices {
			if i < 0 || i >= Channels {
				return fmt.Errorf("%w: %d", ErrInvalidChannel, i)
			}
		}
		o.disabled = append(o.disabled, indices...)
		return nil
	}
}
