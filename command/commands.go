// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package command

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode"

	"code.hybscloud.com/mflow"
	"go.uber.org/zap"
)

// env is what every command needs at execution time.
type env struct {
	in   *Interpreter
	out  io.Writer
	line string
}

// rest returns line after its first n whitespace-separated fields and the
// whitespace that follows them, leaving inner spacing untouched.
func rest(line string, n int) string {
	s := strings.TrimLeftFunc(line, unicode.IsSpace)
	for range n {
		i := strings.IndexFunc(s, unicode.IsSpace)
		if i < 0 {
			return ""
		}
		s = strings.TrimLeftFunc(s[i:], unicode.IsSpace)
	}
	return s
}

type openCmd struct {
	env  *env
	Args struct {
		Channel int `positional-arg-name:"channel" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *openCmd) Execute([]string) error {
	s, err := c.env.in.engine.Open(c.Args.Channel)
	if err != nil {
		return err
	}
	c.env.in.sessions[s.Serial()] = s
	c.env.in.log.Debug("session opened", zap.Int("channel", c.Args.Channel), zap.Uint32("session", s.Serial()))
	fmt.Fprintf(c.env.out, "session %d\n", s.Serial())
	return nil
}

type closeCmd struct {
	env  *env
	Args struct {
		ID mflow.Serial `positional-arg-name:"id" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *closeCmd) Execute([]string) error {
	s, err := c.env.in.session(c.Args.ID)
	if err != nil {
		return err
	}
	delete(c.env.in.sessions, c.Args.ID)
	return s.Close()
}

type flowCmd struct {
	env  *env
	Args struct {
		ID   mflow.Serial `positional-arg-name:"id" required:"yes"`
		Flow string       `positional-arg-name:"high|low" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *flowCmd) Execute([]string) error {
	s, err := c.env.in.session(c.Args.ID)
	if err != nil {
		return err
	}
	f, err := mflow.ParseFlow(c.Args.Flow)
	if err != nil {
		return err
	}
	return s.SetFlow(f)
}

type blockingCmd struct {
	env  *env
	Args struct {
		ID   mflow.Serial `positional-arg-name:"id" required:"yes"`
		Mode string       `positional-arg-name:"on|off" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *blockingCmd) Execute([]string) error {
	s, err := c.env.in.session(c.Args.ID)
	if err != nil {
		return err
	}
	on, err := parseSwitch(c.Args.Mode)
	if err != nil {
		return err
	}
	return s.SetBlocking(on)
}

type timeoutCmd struct {
	env  *env
	Args struct {
		ID      mflow.Serial `positional-arg-name:"id" required:"yes"`
		Timeout string       `positional-arg-name:"duration" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *timeoutCmd) Execute([]string) error {
	s, err := c.env.in.session(c.Args.ID)
	if err != nil {
		return err
	}
	d, err := ParseTimeout(c.Args.Timeout)
	if err != nil {
		return err
	}
	return s.SetTimeout(d)
}

type writeCmd struct {
	env  *env
	Args struct {
		ID   mflow.Serial `positional-arg-name:"id" required:"yes"`
		Text []string     `positional-arg-name:"text" required:"1"`
	} `positional-args:"yes" required:"yes"`
}

func (c *writeCmd) Execute([]string) error {
	s, err := c.env.in.session(c.Args.ID)
	if err != nil {
		return err
	}
	// Args.Text only enforces that some text is present.
	n, err := s.Write([]byte(rest(c.env.line, 2)))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.env.out, "wrote %d\n", n)
	return nil
}

type readCmd struct {
	env  *env
	Args struct {
		ID mflow.Serial `positional-arg-name:"id" required:"yes"`
		N  int          `positional-arg-name:"n" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *readCmd) Execute([]string) error {
	s, err := c.env.in.session(c.Args.ID)
	if err != nil {
		return err
	}
	if c.Args.N < 0 {
		return fmt.Errorf("%w: read size %d", mflow.ErrInvalidArgument, c.Args.N)
	}
	ch, err := c.env.in.engine.Channel(s.Index())
	if err != nil {
		return err
	}
	p := make([]byte, min(c.Args.N, ch.Buffer(s.Flow()).Cap()))
	n, err := s.Read(p)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.env.out, "read %d %q\n", n, p[:n])
	return nil
}

type enableCmd struct {
	env  *env
	on   bool
	Args struct {
		Channel int `positional-arg-name:"channel" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *enableCmd) Execute([]string) error {
	return c.env.in.engine.SetEnabled(c.Args.Channel, c.on)
}

type statCmd struct {
	env  *env
	Args struct {
		Channel int `positional-arg-name:"channel" required:"yes"`
	} `positional-args:"yes" required:"yes"`
}

func (c *statCmd) Execute([]string) error {
	st, err := c.env.in.engine.Stat(c.Args.Channel)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.env.out, "channel %d enabled=%t high=%d low=%d high_waiting=%d low_waiting=%d pending=%d\n",
		st.Index, st.Enabled, st.HighBytes, st.LowBytes, st.HighWaiting, st.LowWaiting,
		c.env.in.engine.PendingWrites())
	return nil
}

// ParseTimeout accepts a Go duration ("250ms", "1s") or a bare integer
// number of milliseconds.
func ParseTimeout(s string) (time.Duration, error) {
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: timeout %q", mflow.ErrInvalidArgument, s)
	}
	return d, nil
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q is not on or off", mflow.ErrInvalidArgument, s)
}
