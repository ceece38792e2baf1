// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Direction is the direction of the data pin.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	switch d {
	case Input:
		return "Input"
	case Output:
		return "Output"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// Port is the data pin the sensor is wired to, together with a monotonic
// microsecond clock.
//
// A Port is owned by a single Dev. None of its methods are called
// concurrently.
type Port interface {
	// SetDirection switches the pin between driving the line and sampling it.
	// In Input the line must be held high by a pull-up.
	SetDirection(d Direction) error
	// Out drives the line. It is only meaningful in Output.
	Out(l gpio.Level) error
	// Read samples the line.
	Read() gpio.Level
	// SleepMicroseconds blocks for at least us microseconds.
	SleepMicroseconds(us uint32)
	// NowMicroseconds returns a monotonic timestamp in microseconds.
	NowMicroseconds() uint64
}

// spinLimit is the longest sleep done by busy waiting.
const spinLimit = time.Millisecond

// NewPinPort returns a Port backed by a periph.io GPIO pin.
//
// In Input the pin's internal pull-up is enabled. Boards with an external
// pull-up resistor are unaffected.
func NewPinPort(p gpio.PinIO) Port {
	return &pinPort{p: p, l: gpio.High, origin: time.Now()}
}

type pinPort struct {
	p      gpio.PinIO
	l      gpio.Level
	origin time.Time
}

func (p *pinPort) SetDirection(d Direction) error {
	switch d {
	case Output:
		return p.p.Out(p.l)
	case Input:
		return p.p.In(gpio.PullUp, gpio.NoEdge)
	default:
		return fmt.Errorf("dht11: invalid direction %s", d)
	}
}

func (p *pinPort) Out(l gpio.Level) error {
	p.l = l
	return p.p.Out(l)
}

func (p *pinPort) Read() gpio.Level {
	return p.p.Read()
}

// SleepMicroseconds busy waits for anything shorter than spinLimit; the
// scheduler wakes a sleeping goroutine far too late for bit level timing.
func (p *pinPort) SleepMicroseconds(us uint32) {
	d := time.Duration(us) * time.Microsecond
	if d >= spinLimit {
		time.Sleep(d)
		return
	}
	start := time.Now()
	for time.Since(start) < d {
	}
}

func (p *pinPort) NowMicroseconds() uint64 {
	return uint64(time.Since(p.origin) / time.Microsecond)
}

func (p *pinPort) String() string {
	return p.p.String()
}
