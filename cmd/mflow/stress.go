// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"code.hybscloud.com/mflow"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type stressCmd struct {
	Channels int           `long:"channels" default:"8" description:"channels to exercise, starting at 0"`
	Threads  int           `long:"threads" default:"2" description:"sessions per channel"`
	Data     string        `long:"data" default:"ciao" description:"payload of each write"`
	Writes   int           `long:"writes" default:"2" description:"writes per session"`
	Reads    int           `long:"reads" default:"3" description:"reads per session"`
	Pause    time.Duration `long:"pause" default:"100ms" description:"delay between the write and read phases"`
	Seed     uint64        `long:"seed" description:"random seed (0 picks one)"`
}

// report is what one session did, printed when every session is done.
type report struct {
	channel int
	thread  int
	flow    mflow.Flow
	block   bool
	timeout time.Duration
	wrote   []int
	read    [][]byte
}

func (c *stressCmd) Execute([]string) (err error) {
	if c.Channels <= 0 || c.Channels > mflow.Channels || c.Threads <= 0 {
		return fmt.Errorf("%w: channels %d threads %d", mflow.ErrInvalidArgument, c.Channels, c.Threads)
	}
	rt, err := start()
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, rt.stop()) }()

	seed := c.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rt.log.Info("stress starting", zap.Int("channels", c.Channels), zap.Int("threads", c.Threads), zap.Uint64("seed", seed))

	reports := make([]report, c.Channels*c.Threads)
	g, ctx := errgroup.WithContext(context.Background())
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for ch := range c.Channels {
		for th := range c.Threads {
			r := &reports[ch*c.Threads+th]
			*r = report{
				channel: ch,
				thread:  th,
				timeout: time.Duration(100+rng.IntN(300)) * time.Millisecond,
				flow:    mflow.Flow(rng.IntN(2)),
				block:   rng.IntN(2) == 1,
			}
			g.Go(func() error { return c.session(ctx, rt.engine, r) })
		}
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range reports {
		fmt.Fprintf(os.Stdout, "[channel %d, thread %d] flow=%s blocking=%t timeout=%v wrote=%v",
			r.channel, r.thread, r.flow, r.block, r.timeout, r.wrote)
		for i, p := range r.read {
			fmt.Fprintf(os.Stdout, " read%d=%q", i, p)
		}
		fmt.Fprintln(os.Stdout)
	}
	return nil
}

// session runs one simulated user. r is owned by this goroutine until Wait.
func (c *stressCmd) session(ctx context.Context, e *mflow.Engine, r *report) error {
	s, err := e.Open(r.channel)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()
	if err := s.Configure(mflow.Config{Flow: &r.flow, Blocking: &r.block, Timeout: &r.timeout}); err != nil {
		return err
	}

	for range c.Writes {
		n, err := s.Write([]byte(c.Data))
		if err != nil {
			return err
		}
		r.wrote = append(r.wrote, n)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.Pause):
	}

	for range c.Reads {
		p := make([]byte, len(c.Data))
		n, err := s.Read(p)
		if err != nil {
			return err
		}
		r.read = append(r.read, p[:n])
	}
	return nil
}
