// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mflow

// Serial identifies a session within its Engine.
// Each Open assigns the next value, starting at 1.
type Serial = uint32

// nextSerial returns the next monotonically increasing serial.
func (e *Engine) nextSerial() Serial {
	return e.serials.Add(1)
}
