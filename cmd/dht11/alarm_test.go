// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/GermanBionicSystems/dht/dht11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
)

func reading(h, t float64) dht11.Reading {
	return dht11.Reading{Humidity: percent(h), Temperature: celsius(t)}
}

func TestAlarm_Update(t *testing.T) {
	p := &gpiotest.Pin{N: "GPIO27", L: gpio.High}
	a, err := newAlarm(p, DefaultConfig().Alarm)
	require.NoError(t, err)
	assert.Equal(t, gpio.Low, p.L)

	for _, tc := range []struct {
		name string
		r    dht11.Reading
		want bool
	}{
		{"comfortable", reading(45, 23), false},
		{"at the edges", reading(60, 10), false},
		{"cold", reading(45, 9.5), true},
		{"hot", reading(45, 41), true},
		{"dry", reading(19, 23), true},
		{"humid", reading(61, 23), true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			on, err := a.update(tc.r)
			require.NoError(t, err)
			assert.Equal(t, tc.want, on)
			assert.Equal(t, gpio.Level(tc.want), p.L)
		})
	}
	require.NoError(t, a.off())
	assert.Equal(t, gpio.Low, p.L)
}

func TestCelsius(t *testing.T) {
	assert.Equal(t, physic.ZeroCelsius+25*physic.Celsius, celsius(25))
	assert.Equal(t, physic.ZeroCelsius-5*physic.Celsius/10, celsius(-0.5))
	assert.Equal(t, 50*physic.PercentRH, percent(50))
}

func TestBand_Validate(t *testing.T) {
	b := DefaultConfig().Alarm
	assert.NoError(t, b.validate())
	b.MaxTemperature = b.MinTemperature
	assert.Error(t, b.validate())
	b = DefaultConfig().Alarm
	b.MinHumidity = 80
	assert.Error(t, b.validate())
}

func TestOpenAlarm(t *testing.T) {
	a, err := openAlarm(DefaultConfig())
	require.NoError(t, err)
	assert.Nil(t, a)

	cfg := testConfig(1)
	cfg.AlarmPin = "LED"
	a, err = openAlarm(cfg)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "LED(0)", a.p.String())
}

func TestRun_Alarm(t *testing.T) {
	var log bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&log, nil))
	cfg := testConfig(2)
	cfg.AlarmPin = "LED"
	// The simulator reports 45% then 46%.
	cfg.Alarm.MaxHumidity = 45.5
	require.NoError(t, run(context.Background(), cfg, logger, io.Discard))
	assert.Equal(t, 1, strings.Count(log.String(), `msg="reading out of range"`))
}
