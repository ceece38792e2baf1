// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// dht11 prints humidity and temperature read from a DHT11 sensor.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GermanBionicSystems/dht/dht11"
	"github.com/GermanBionicSystems/dht/dht11/dht11test"
	"github.com/GermanBionicSystems/dht/gauge"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

func main() {
	cfg, err := Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "dht11: %v\n", err)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, colorable.NewColorableStdout()); err != nil {
		logger.Error("dht11 failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config, logger *slog.Logger, out io.Writer) error {
	port, err := openPort(cfg)
	if err != nil {
		return err
	}
	opts, err := cfg.Opts()
	if err != nil {
		return err
	}
	d, err := dht11.NewPort(port, &opts)
	if err != nil {
		return err
	}
	defer d.Halt()
	logger.Info("reading", "dev", d.String(), "attempts", opts.Attempts, "delay", opts.RetryDelay, "sign", opts.Sign)

	a, err := openAlarm(cfg)
	if err != nil {
		return err
	}
	if a != nil {
		defer a.off()
	}

	var g *gauge.Dev
	if cfg.Gauge {
		g = gauge.NewWriter(out, nil)
		defer g.Halt()
	}

	for i := 0; cfg.Count == 0 || i < cfg.Count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(cfg.Interval):
			}
		}
		r, err := d.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logReadError(logger, err)
			continue
		}
		if a != nil {
			on, err := a.update(r)
			if err != nil {
				return err
			}
			if on {
				logger.Warn("reading out of range", "humidity", r.Humidity, "temperature", r.Temperature)
			}
		}
		if g != nil {
			if err := g.Show(r); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(out, "%s humidity=%s temperature=%s\n", r.Time.Format(time.RFC3339), r.Humidity, r.Temperature); err != nil {
			return err
		}
	}
	return nil
}

func openPort(cfg Config) (dht11.Port, error) {
	if cfg.Simulate {
		return simulated(), nil
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p := gpioreg.ByName(cfg.Pin)
	if p == nil {
		return nil, fmt.Errorf("unknown pin %q", cfg.Pin)
	}
	return dht11.NewPinPort(p), nil
}

// simulated returns a sensor that misses a request now and then.
func simulated() *dht11test.Sensor {
	noisy := dht11test.NewTransfer(46, 0, 23, 1)
	noisy.Data[2] ^= 0x04
	short := dht11test.NewTransfer(46, 0, 23, 2)
	short.Bits = 23
	return &dht11test.Sensor{
		Transfers: []dht11test.Transfer{
			dht11test.NewTransfer(45, 0, 23, 0),
			{Silent: true},
			dht11test.NewTransfer(46, 0, 23, 1),
			noisy,
			short,
			dht11test.NewTransfer(47, 0, 23, 4),
		},
		Loop: true,
	}
}

func logReadError(logger *slog.Logger, err error) {
	var re *dht11.ReadError
	if errors.As(err, &re) {
		for i, e := range re.Attempts {
			logger.Debug("attempt failed", "attempt", i+1, "err", e)
		}
	}
	logger.Warn("read failed", "err", err)
}
