// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dht11test is meant to be used to test code using dht11.Dev without
// a sensor.
//
// Sensor implements dht11.Port on a virtual microsecond clock and plays back
// the waveform a DHT11 would put on the line, one Transfer per start signal.
package dht11test

import (
	"errors"
	"sync"

	"github.com/GermanBionicSystems/dht/common"
	"github.com/GermanBionicSystems/dht/dht11"
	"periph.io/x/conn/v3/gpio"
)

// Nominal timings of the sensor, in microseconds.
const (
	respondDelay = 10
	ackLow       = 80
	ackHigh      = 80
	bitLow       = 50
	zeroHigh     = 27
	oneHigh      = 70
	minStartLow  = 18000
)

// Transfer is what the sensor sends in response to one start signal.
type Transfer struct {
	// Data is sent most significant bit first.
	Data [dht11.FrameBytes]byte
	// Bits is the number of bits of Data sent before the sensor goes quiet.
	// NewTransfer sets it to dht11.FrameBits.
	Bits int
	// Silent suppresses the acknowledgement, as when no sensor is present.
	Silent bool
	// Zero and One are the high pulse widths in µs. 0 selects the nominal
	// 27µs and 70µs.
	Zero, One uint32
}

// NewTransfer returns a complete Transfer of the four data bytes followed by
// their checksum.
func NewTransfer(humidity, humidityDecimal, temperature, temperatureDecimal byte) Transfer {
	t := Transfer{
		Data: [dht11.FrameBytes]byte{humidity, humidityDecimal, temperature, temperatureDecimal},
		Bits: dht11.FrameBits,
	}
	t.Data[4] = common.Sum8(t.Data[:4])
	return t
}

// Sensor simulates a DHT11 wired to a pin with a pull-up.
//
// A start signal shorter than 18ms is ignored, as the sensor does. Every
// accepted start signal consumes the next Transfer.
type Sensor struct {
	sync.Mutex
	Transfers []Transfer
	// Count is the number of Transfers consumed.
	Count int
	// Loop restarts at the first Transfer once all were consumed. Otherwise
	// an extra start signal returns an error.
	Loop bool
	// ReadCost is how many µs the clock advances per Read. 0 means 1.
	ReadCost uint32

	now      uint64
	dir      dht11.Direction
	out      gpio.Level
	lowSince uint64
	lowFor   uint64
	wave     []segment
	waveAt   uint64
}

type segment struct {
	l gpio.Level
	d uint64
}

func (s *Sensor) String() string {
	return "dht11test"
}

// SetDirection implements dht11.Port.
func (s *Sensor) SetDirection(d dht11.Direction) error {
	s.Lock()
	defer s.Unlock()
	if d == s.dir {
		return nil
	}
	s.dir = d
	switch d {
	case dht11.Output:
		s.wave = nil
		if s.out == gpio.Low {
			s.lowSince = s.now
		}
	case dht11.Input:
		if s.out == gpio.Low {
			s.lowFor = s.now - s.lowSince
		}
		return s.respond()
	default:
		return errors.New("dht11test: invalid direction")
	}
	return nil
}

// Out implements dht11.Port.
func (s *Sensor) Out(l gpio.Level) error {
	s.Lock()
	defer s.Unlock()
	if s.dir != dht11.Output {
		return errors.New("dht11test: Out while in Input")
	}
	if l == s.out {
		return nil
	}
	if l == gpio.Low {
		s.lowSince = s.now
	} else {
		s.lowFor = s.now - s.lowSince
	}
	s.out = l
	return nil
}

// Read implements dht11.Port. It advances the clock by ReadCost.
func (s *Sensor) Read() gpio.Level {
	s.Lock()
	defer s.Unlock()
	l := s.level()
	if s.ReadCost == 0 {
		s.now++
	} else {
		s.now += uint64(s.ReadCost)
	}
	return l
}

// SleepMicroseconds implements dht11.Port. It only advances the clock.
func (s *Sensor) SleepMicroseconds(us uint32) {
	s.Lock()
	defer s.Unlock()
	s.now += uint64(us)
}

// NowMicroseconds implements dht11.Port.
func (s *Sensor) NowMicroseconds() uint64 {
	s.Lock()
	defer s.Unlock()
	return s.now
}

// respond starts the next Transfer if the start signal was long enough.
func (s *Sensor) respond() error {
	s.wave = nil
	if s.lowFor < minStartLow {
		return nil
	}
	s.lowFor = 0
	if s.Count >= len(s.Transfers) {
		if !s.Loop || len(s.Transfers) == 0 {
			return errors.New("dht11test: unexpected start signal")
		}
		s.Count = 0
	}
	t := s.Transfers[s.Count]
	s.Count++
	s.waveAt = s.now
	if !t.Silent {
		s.wave = t.waveform()
	}
	return nil
}

// level returns the line level. Whenever nothing drives it, the pull-up
// holds it high.
func (s *Sensor) level() gpio.Level {
	if s.dir == dht11.Output {
		return s.out
	}
	at := s.now - s.waveAt
	for _, seg := range s.wave {
		if at < seg.d {
			return seg.l
		}
		at -= seg.d
	}
	return gpio.High
}

func (t *Transfer) waveform() []segment {
	zero, one := uint64(t.Zero), uint64(t.One)
	if zero == 0 {
		zero = zeroHigh
	}
	if one == 0 {
		one = oneHigh
	}
	bits := t.Bits
	if bits > dht11.FrameBits {
		bits = dht11.FrameBits
	}
	w := make([]segment, 0, 2*bits+4)
	w = append(w,
		segment{gpio.High, respondDelay},
		segment{gpio.Low, ackLow},
		segment{gpio.High, ackHigh})
	for i := range bits {
		w = append(w, segment{gpio.Low, bitLow})
		if t.Data[i/8]&(0x80>>(i%8)) != 0 {
			w = append(w, segment{gpio.High, one})
		} else {
			w = append(w, segment{gpio.High, zero})
		}
	}
	// The sensor pulls the line low once more before releasing it.
	return append(w, segment{gpio.Low, bitLow})
}

var _ dht11.Port = &Sensor{}
