// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package command drives an Engine from a line-oriented text protocol.
//
// Each line is one command; blank lines and lines starting with '#' are
// skipped. Sessions are named by the id printed by open.
//
//	open <channel>               -> session <id>
//	close <id>
//	flow <id> high|low
//	blocking <id> on|off
//	timeout <id> <duration|ms>
//	write <id> <text...>         -> wrote <n>  (text is the rest of the line, spacing kept)
//	read <id> <n>                -> read <n> "<bytes>"  (n is capped at the flow capacity)
//	enable <channel>
//	disable <channel>
//	stat <channel>               -> channel <i> enabled=<b> high=<n> low=<n> ...
package command

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"code.hybscloud.com/mflow"
	flags "github.com/jessevdk/go-flags"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrUnknownSession reports a session id that was never opened or is closed.
var ErrUnknownSession = errors.New("command: unknown session")

// Interpreter executes command lines against one Engine.
// It is not safe for concurrent use.
type Interpreter struct {
	engine   *mflow.Engine
	log      *zap.Logger
	sessions map[mflow.Serial]*mflow.Session
}

// New returns an Interpreter over e. A nil logger disables logging.
func New(e *mflow.Engine, log *zap.Logger) *Interpreter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Interpreter{
		engine:   e,
		log:      log.Named("command"),
		sessions: make(map[mflow.Serial]*mflow.Session),
	}
}

// Exec runs a single line, writing any response to out.
func (in *Interpreter) Exec(line string, out io.Writer) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	_, err := newParser(in, out, line).ParseArgs(strings.Fields(line))
	return err
}

// Run executes every line of r. A failing line is reported on out as
// "error: ..." and does not stop the run; all failures are returned merged.
func (in *Interpreter) Run(r io.Reader, out io.Writer) error {
	var errs error
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		if err := in.Exec(sc.Text(), out); err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			in.log.Debug("command failed", zap.Int("line", n), zap.Error(err))
			errs = multierr.Append(errs, fmt.Errorf("line %d: %w", n, err))
		}
	}
	return multierr.Append(errs, sc.Err())
}

// Close closes every session the interpreter opened.
func (in *Interpreter) Close() error {
	var errs error
	for id, s := range in.sessions {
		errs = multierr.Append(errs, s.Close())
		delete(in.sessions, id)
	}
	return errs
}

func (in *Interpreter) session(id mflow.Serial) (*mflow.Session, error) {
	s, ok := in.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSession, id)
	}
	return s, nil
}

// newParser builds a fresh go-flags parser for one line, so positional
// values never leak from one command into the next.
func newParser(in *Interpreter, out io.Writer, line string) *flags.Parser {
	p := flags.NewNamedParser("mflow", flags.PassDoubleDash)
	env := &env{in: in, out: out, line: line}
	add := func(name, short string, data any) {
		if _, err := p.AddCommand(name, short, "", data); err != nil {
			panic(err)
		}
	}
	add("open", "open a session on a channel", &openCmd{env: env})
	add("close", "close a session", &closeCmd{env: env})
	add("flow", "select the session flow", &flowCmd{env: env})
	add("blocking", "switch blocking mode", &blockingCmd{env: env})
	add("timeout", "set the blocking timeout", &timeoutCmd{env: env})
	add("write", "write text on the session flow", &writeCmd{env: env})
	add("read", "read up to n bytes", &readCmd{env: env})
	add("enable", "enable a channel", &enableCmd{env: env, on: true})
	add("disable", "disable a channel", &enableCmd{env: env, on: false})
	add("stat", "show channel counters", &statCmd{env: env})
	return p
}
