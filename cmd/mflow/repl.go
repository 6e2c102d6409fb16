// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"code.hybscloud.com/mflow/command"
	"go.uber.org/multierr"
)

type replCmd struct{}

// Execute runs the interpreter until stdin is exhausted. Failing lines are
// echoed as they happen; the exit status reflects whether any failed.
func (*replCmd) Execute([]string) (err error) {
	rt, err := start()
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, rt.stop()) }()

	in := command.New(rt.engine, rt.log)
	defer func() { err = multierr.Append(err, in.Close()) }()
	return in.Run(os.Stdin, os.Stdout)
}
