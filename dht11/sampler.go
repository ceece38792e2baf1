// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import (
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// State is the stage of a single read attempt.
type State int

const (
	Idle State = iota
	Handshaking
	AwaitingAck
	SamplingBits
	Decoding
	Done
)

const stateName = "IdleHandshakingAwaitingAckSamplingBitsDecodingDone"

var stateIndex = [...]uint8{0, 4, 15, 26, 38, 46, 50}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateIndex)-1 {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateName[stateIndex[s]:stateIndex[s+1]]
}

const (
	// FrameBits is the number of data bits in a frame.
	FrameBits = 40
	// FrameBytes is the number of bytes in a frame, checksum included.
	FrameBytes = FrameBits / 8

	// minStartLow is the shortest start signal the datasheet allows.
	minStartLow = 18 * time.Millisecond
)

// Timing holds the protocol timings. Modules differ; check them against the
// datasheet of the part in use.
type Timing struct {
	// StartLow is how long the host holds the line low to request a frame.
	// Must be at least 18ms.
	StartLow time.Duration
	// Release is how long the host drives the line high before switching the
	// pin to input.
	Release time.Duration
	// AckTimeout bounds each phase of the sensor acknowledgement.
	AckTimeout time.Duration
	// BitTimeout bounds the wait for every edge while receiving bits.
	BitTimeout time.Duration
	// Threshold separates a 0 from a 1. High pulses shorter than Threshold
	// are 0, pulses of Threshold or longer are 1.
	Threshold time.Duration
}

// DefaultTiming holds the timings from the datasheet.
var DefaultTiming = Timing{
	StartLow:   18 * time.Millisecond,
	Release:    30 * time.Microsecond,
	AckTimeout: 200 * time.Microsecond,
	BitTimeout: 200 * time.Microsecond,
	Threshold:  50 * time.Microsecond,
}

// withDefaults returns t with zero fields replaced by DefaultTiming.
func (t Timing) withDefaults() Timing {
	if t.StartLow <= 0 {
		t.StartLow = DefaultTiming.StartLow
	}
	if t.Release <= 0 {
		t.Release = DefaultTiming.Release
	}
	if t.AckTimeout <= 0 {
		t.AckTimeout = DefaultTiming.AckTimeout
	}
	if t.BitTimeout <= 0 {
		t.BitTimeout = DefaultTiming.BitTimeout
	}
	if t.Threshold <= 0 {
		t.Threshold = DefaultTiming.Threshold
	}
	return t
}

func (t *Timing) validate() error {
	if t.StartLow < minStartLow {
		return fmt.Errorf("dht11: start signal %s is shorter than %s", t.StartLow, minStartLow)
	}
	if t.Threshold >= t.BitTimeout {
		return fmt.Errorf("dht11: threshold %s must be below the bit timeout %s", t.Threshold, t.BitTimeout)
	}
	return nil
}

// Pulse is one period of constant level on the data line.
type Pulse struct {
	Level    gpio.Level
	Duration time.Duration
}

// Pulses is the sequence captured by one read attempt.
type Pulses []Pulse

// Sampler performs the start handshake and captures the high pulse of every
// data bit. It does not interpret the pulses; see DecodeFrame.
type Sampler struct {
	Port   Port
	Timing Timing
}

// Sample runs one handshake and returns the FrameBits high pulses sent by the
// sensor. The line is left driven high whatever the outcome.
func (s *Sampler) Sample() (Pulses, error) {
	p, err := s.sample()
	if ierr := s.idle(); ierr != nil {
		return nil, errors.Join(err, ierr)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Sampler) sample() (Pulses, error) {
	// The capture must not be interrupted by the scheduler moving the
	// goroutine or by a collection.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer debug.SetGCPercent(debug.SetGCPercent(-1))

	// Handshaking.
	if err := s.Port.SetDirection(Output); err != nil {
		return nil, &PortError{State: Handshaking, Err: err}
	}
	if err := s.Port.Out(gpio.Low); err != nil {
		return nil, &PortError{State: Handshaking, Err: err}
	}
	s.Port.SleepMicroseconds(micros(s.Timing.StartLow))
	if err := s.Port.Out(gpio.High); err != nil {
		return nil, &PortError{State: Handshaking, Err: err}
	}
	s.Port.SleepMicroseconds(micros(s.Timing.Release))
	if err := s.Port.SetDirection(Input); err != nil {
		return nil, &PortError{State: Handshaking, Err: err}
	}

	// AwaitingAck: low ~80µs, high ~80µs, then the first bit starts low.
	ack := uint64(micros(s.Timing.AckTimeout))
	for _, l := range [...]gpio.Level{gpio.Low, gpio.High, gpio.Low} {
		if _, ok := s.waitFor(l, ack); !ok {
			return nil, &TimeoutError{State: AwaitingAck}
		}
	}

	// SamplingBits.
	bit := uint64(micros(s.Timing.BitTimeout))
	pulses := make(Pulses, 0, FrameBits)
	for len(pulses) < FrameBits {
		rise, ok := s.waitFor(gpio.High, bit)
		if !ok {
			return nil, &TimeoutError{State: SamplingBits, Bits: len(pulses)}
		}
		fall, ok := s.waitFor(gpio.Low, bit)
		if !ok {
			return nil, &TimeoutError{State: SamplingBits, Bits: len(pulses)}
		}
		pulses = append(pulses, Pulse{Level: gpio.High, Duration: time.Duration(fall-rise) * time.Microsecond})
	}
	return pulses, nil
}

// waitFor polls the line until it reads l and returns the time it did. It
// returns false once timeout microseconds passed.
func (s *Sampler) waitFor(l gpio.Level, timeout uint64) (uint64, bool) {
	start := s.Port.NowMicroseconds()
	for {
		if s.Port.Read() == l {
			return s.Port.NowMicroseconds(), true
		}
		if s.Port.NowMicroseconds()-start > timeout {
			return 0, false
		}
	}
}

// idle drives the line high so the sensor is ready for the next request.
func (s *Sampler) idle() error {
	if err := s.Port.SetDirection(Output); err != nil {
		return &PortError{State: Idle, Err: err}
	}
	if err := s.Port.Out(gpio.High); err != nil {
		return &PortError{State: Idle, Err: err}
	}
	return nil
}

func micros(d time.Duration) uint32 {
	return uint32(d / time.Microsecond)
}
