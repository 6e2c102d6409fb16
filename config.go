// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mflow

import (
	"fmt"
	"time"
)

// Config is a partial session configuration. Nil fields are left unchanged.
type Config struct {
	Flow     *Flow
	Blocking *bool
	Timeout  *time.Duration
}

// Validate checks every non-nil field.
func (c Config) Validate() error {
	if c.Flow != nil && !c.Flow.Valid() {
		return fmt.Errorf("%w: flow %d", ErrInvalidArgument, *c.Flow)
	}
	if c.Timeout != nil && *c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout %v", ErrInvalidArgument, *c.Timeout)
	}
	return nil
}

// FlowConfig returns a Config that selects f.
func FlowConfig(f Flow) Config {
	return Config{Flow: &f}
}

// BlockingConfig returns a Config that sets the blocking mode.
func BlockingConfig(on bool) Config {
	return Config{Blocking: &on}
}

// TimeoutConfig returns a Config that sets the timeout.
func TimeoutConfig(d time.Duration) Config {
	return Config{Timeout: &d}
}
