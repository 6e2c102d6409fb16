// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mflow

import "errors"

var (
	// ErrInvalidChannel reports a channel index outside [0, Channels).
	ErrInvalidChannel = errors.New("mflow: invalid channel")
	// ErrChannelDisabled reports an open on a disabled channel.
	// Sessions opened before the channel was disabled are unaffected.
	ErrChannelDisabled = errors.New("mflow: channel disabled")
	// ErrInvalidArgument reports a rejected configuration value.
	// The session keeps its previous configuration.
	ErrInvalidArgument = errors.New("mflow: invalid argument")
	// ErrNoScratch reports that a LOW-priority write could not obtain a slot
	// in the deferred executor. Distinct from a full flow, which is a zero count.
	ErrNoScratch = errors.New("mflow: no scratch space for deferred write")
	// ErrSessionClosed reports an operation on a closed session.
	ErrSessionClosed = errors.New("mflow: session closed")
	// ErrEngineClosed reports an operation on an engine after Shutdown.
	ErrEngineClosed = errors.New("mflow: engine closed")
)
