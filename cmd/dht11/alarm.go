// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/GermanBionicSystems/dht/dht11"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Band is the comfort range outside of which the alarm pin is driven high.
// Temperatures are in °C and humidity in %.
type Band struct {
	MinTemperature float64 `yaml:"min_temperature"`
	MaxTemperature float64 `yaml:"max_temperature"`
	MinHumidity    float64 `yaml:"min_humidity"`
	MaxHumidity    float64 `yaml:"max_humidity"`
}

func (b *Band) validate() error {
	if b.MinTemperature >= b.MaxTemperature {
		return fmt.Errorf("alarm temperature range %g..%g is empty", b.MinTemperature, b.MaxTemperature)
	}
	if b.MinHumidity >= b.MaxHumidity {
		return fmt.Errorf("alarm humidity range %g..%g is empty", b.MinHumidity, b.MaxHumidity)
	}
	return nil
}

// alarm drives an indicator, typically a LED, high while readings are out of
// the band.
type alarm struct {
	p          gpio.PinOut
	minT, maxT physic.Temperature
	minH, maxH physic.RelativeHumidity
}

func newAlarm(p gpio.PinOut, b Band) (*alarm, error) {
	a := &alarm{
		p:    p,
		minT: celsius(b.MinTemperature),
		maxT: celsius(b.MaxTemperature),
		minH: percent(b.MinHumidity),
		maxH: percent(b.MaxHumidity),
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("alarm pin %s: %w", p, err)
	}
	return a, nil
}

// openAlarm returns nil when no alarm pin is configured.
func openAlarm(cfg Config) (*alarm, error) {
	if cfg.AlarmPin == "" {
		return nil, nil
	}
	var p gpio.PinIO
	if cfg.Simulate {
		p = &gpiotest.Pin{N: cfg.AlarmPin}
	} else {
		if _, err := host.Init(); err != nil {
			return nil, fmt.Errorf("periph host init: %w", err)
		}
		if p = gpioreg.ByName(cfg.AlarmPin); p == nil {
			return nil, fmt.Errorf("unknown alarm pin %q", cfg.AlarmPin)
		}
	}
	return newAlarm(p, cfg.Alarm)
}

// update sets the pin for r and reports whether r is out of the band.
func (a *alarm) update(r dht11.Reading) (bool, error) {
	out := r.Temperature < a.minT || r.Temperature > a.maxT || r.Humidity < a.minH || r.Humidity > a.maxH
	if err := a.p.Out(gpio.Level(out)); err != nil {
		return out, fmt.Errorf("alarm pin %s: %w", a.p, err)
	}
	return out, nil
}

func (a *alarm) off() error {
	return a.p.Out(gpio.Low)
}

func celsius(v float64) physic.Temperature {
	return physic.ZeroCelsius + physic.Temperature(v*float64(physic.Celsius))
}

func percent(v float64) physic.RelativeHumidity {
	return physic.RelativeHumidity(v * float64(physic.PercentRH))
}
