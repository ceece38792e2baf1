// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/GermanBionicSystems/dht/dht11"
	"gopkg.in/yaml.v3"
)

// Timing mirrors dht11.Timing. Zero fields keep the driver defaults.
type Timing struct {
	StartLow   time.Duration `yaml:"start_low"`
	Release    time.Duration `yaml:"release"`
	AckTimeout time.Duration `yaml:"ack_timeout"`
	BitTimeout time.Duration `yaml:"bit_timeout"`
	Threshold  time.Duration `yaml:"threshold"`
}

type Config struct {
	Pin         string        `yaml:"pin"`
	Attempts    int           `yaml:"attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	MinInterval time.Duration `yaml:"min_interval"`
	Interval    time.Duration `yaml:"interval"`
	// Count is the number of readings to print; 0 reads until interrupted.
	Count    int    `yaml:"count"`
	Sign     string `yaml:"sign"`
	Simulate bool   `yaml:"simulate"`
	Gauge    bool   `yaml:"gauge"`
	Verbose  bool   `yaml:"verbose"`
	Timing   Timing `yaml:"timing"`
	// AlarmPin, when set, is driven high while readings are outside Alarm.
	AlarmPin string `yaml:"alarm_pin"`
	Alarm    Band   `yaml:"alarm"`
}

func DefaultConfig() Config {
	return Config{
		Pin:         "GPIO4",
		Attempts:    dht11.DefaultOpts.Attempts,
		RetryDelay:  dht11.DefaultOpts.RetryDelay,
		MinInterval: dht11.DefaultOpts.MinInterval,
		Interval:    2 * time.Second,
		Sign:        "unsigned",
		Alarm:       Band{MinTemperature: 10, MaxTemperature: 40, MinHumidity: 20, MaxHumidity: 60},
	}
}

// Load reads the configuration from a YAML file (optional) and flags.
// Flags override values present in the file.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("dht11", flag.ContinueOnError)
	path := fs.String("config", "", "Path to YAML config file")
	f := DefaultConfig()
	fs.StringVar(&f.Pin, "pin", f.Pin, "GPIO pin wired to the sensor data line")
	fs.IntVar(&f.Attempts, "attempts", f.Attempts, "Attempts per reading")
	fs.DurationVar(&f.RetryDelay, "delay", f.RetryDelay, "Delay between two attempts")
	fs.DurationVar(&f.MinInterval, "min-interval", f.MinInterval, "Minimum time between two requests to the sensor")
	fs.DurationVar(&f.Interval, "interval", f.Interval, "Time between two readings")
	fs.IntVar(&f.Count, "count", f.Count, "Number of readings, 0 for no limit")
	fs.StringVar(&f.Sign, "sign", f.Sign, "Negative temperature encoding: unsigned|integral|decimal")
	fs.BoolVar(&f.Simulate, "simulate", f.Simulate, "Read a simulated sensor instead of a GPIO pin")
	fs.BoolVar(&f.Gauge, "gauge", f.Gauge, "Show readings as colored bars")
	fs.BoolVar(&f.Verbose, "v", f.Verbose, "Log every failed attempt")
	fs.StringVar(&f.AlarmPin, "alarm-pin", f.AlarmPin, "GPIO pin driven high while readings are out of the alarm band")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := DefaultConfig()
	if *path != "" {
		b, err := os.ReadFile(*path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "pin":
			cfg.Pin = f.Pin
		case "attempts":
			cfg.Attempts = f.Attempts
		case "delay":
			cfg.RetryDelay = f.RetryDelay
		case "min-interval":
			cfg.MinInterval = f.MinInterval
		case "interval":
			cfg.Interval = f.Interval
		case "count":
			cfg.Count = f.Count
		case "sign":
			cfg.Sign = f.Sign
		case "simulate":
			cfg.Simulate = f.Simulate
		case "gauge":
			cfg.Gauge = f.Gauge
		case "v":
			cfg.Verbose = f.Verbose
		case "alarm-pin":
			cfg.AlarmPin = f.AlarmPin
		}
	})
	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Pin == "" && !c.Simulate {
		return errors.New("pin is required")
	}
	if c.Attempts < 1 {
		return errors.New("attempts must be > 0")
	}
	if c.Interval <= 0 {
		return errors.New("interval must be > 0")
	}
	if c.Count < 0 {
		return errors.New("count must be >= 0")
	}
	if _, err := parseSign(c.Sign); err != nil {
		return err
	}
	if c.AlarmPin != "" {
		return c.Alarm.validate()
	}
	return nil
}

// Opts returns the driver options.
func (c *Config) Opts() (dht11.Opts, error) {
	sign, err := parseSign(c.Sign)
	if err != nil {
		return dht11.Opts{}, err
	}
	return dht11.Opts{
		Timing:      dht11.Timing(c.Timing),
		Sign:        sign,
		Attempts:    c.Attempts,
		RetryDelay:  c.RetryDelay,
		MinInterval: c.MinInterval,
	}, nil
}

func parseSign(s string) (dht11.SignPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "unsigned":
		return dht11.Unsigned, nil
	case "integral":
		return dht11.SignInIntegral, nil
	case "decimal":
		return dht11.SignInDecimal, nil
	default:
		return 0, fmt.Errorf("invalid sign %q, want unsigned, integral or decimal", s)
	}
}
