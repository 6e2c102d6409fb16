// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command mflow runs a dual-flow channel engine in process and drives it
// interactively (repl) or with a concurrent workload (stress).
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"time"

	"code.hybscloud.com/mflow"
	"code.hybscloud.com/mflow/internal/observability"
	"code.hybscloud.com/mflow/metrics"
	flags "github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

type globalOptions struct {
	Capacity    int                     `long:"capacity" default:"4096" description:"bytes per flow"`
	Workers     int                     `long:"workers" default:"4" description:"deferred-write workers"`
	QueueDepth  int                     `long:"queue-depth" default:"1024" description:"pending LOW writes per worker"`
	Timeout     time.Duration           `long:"timeout" default:"200ms" description:"default session timeout"`
	Disabled    []int                   `long:"disable" description:"channel to start disabled (repeatable)"`
	MetricsAddr string                  `long:"metrics-addr" description:"serve Prometheus metrics on this address"`
	Log         observability.LogConfig `group:"Logging"`
}

var global globalOptions

func main() {
	p := flags.NewParser(&global, flags.Default)
	p.SubcommandsOptional = false
	if _, err := p.AddCommand("repl", "interactive command interpreter",
		"Reads commands from stdin, one per line. See package command for the grammar.", &replCmd{}); err != nil {
		panic(err)
	}
	if _, err := p.AddCommand("stress", "concurrent random workload",
		"Opens several sessions per channel with random flow, blocking mode and timeout, writes then reads.", &stressCmd{}); err != nil {
		panic(err)
	}
	if _, err := p.Parse(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
}

// app is the engine and its surroundings for one subcommand.
type app struct {
	engine *mflow.Engine
	log    *zap.Logger
	srv    *http.Server
	addr   string
}

func start() (*app, error) {
	log, err := observability.SetupLogger(global.Log)
	if err != nil {
		return nil, err
	}
	e, err := mflow.New(
		mflow.WithCapacity(global.Capacity),
		mflow.WithWorkers(global.Workers),
		mflow.WithQueueDepth(global.QueueDepth),
		mflow.WithDefaultTimeout(global.Timeout),
		mflow.WithDisabled(global.Disabled...),
		mflow.WithLogger(log),
	)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	rt := &app{engine: e, log: log}
	if global.MetricsAddr != "" {
		if err := rt.serveMetrics(global.MetricsAddr); err != nil {
			return nil, multierr.Append(err, rt.stop())
		}
	}
	return rt, nil
}

func (rt *app) serveMetrics(addr string) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(metrics.NewCollector(rt.engine)); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	rt.addr = ln.Addr().String()
	rt.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := rt.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.log.Error("metrics server failed", zap.Error(err))
		}
	}()
	rt.log.Info("serving metrics", zap.String("addr", rt.addr))
	return nil
}

func (rt *app) stop() error {
	var errs error
	if rt.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		errs = multierr.Append(errs, rt.srv.Shutdown(ctx))
		cancel()
	}
	errs = multierr.Append(errs, rt.engine.Shutdown())
	_ = rt.log.Sync()
	return errs
}
