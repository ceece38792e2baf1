// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11test

import (
	"testing"

	"github.com/GermanBionicSystems/dht/dht11"
	"periph.io/x/conn/v3/gpio"
)

// start sends a start signal of lowUS microseconds and switches to input.
func start(t *testing.T, s *Sensor, lowUS uint32) error {
	if err := s.SetDirection(dht11.Output); err != nil {
		t.Fatal(err)
	}
	if err := s.Out(gpio.Low); err != nil {
		t.Fatal(err)
	}
	s.SleepMicroseconds(lowUS)
	if err := s.Out(gpio.High); err != nil {
		t.Fatal(err)
	}
	return s.SetDirection(dht11.Input)
}

func TestNewTransfer(t *testing.T) {
	tr := NewTransfer(0x32, 0x00, 0x1b, 0x00)
	if want := [dht11.FrameBytes]byte{0x32, 0x00, 0x1b, 0x00, 0x4d}; tr.Data != want {
		t.Errorf("% x != % x", tr.Data, want)
	}
	if tr.Bits != dht11.FrameBits || tr.Silent {
		t.Errorf("unexpected %+v", tr)
	}
}

func TestSensor_waveform(t *testing.T) {
	s := &Sensor{Transfers: []Transfer{NewTransfer(0x80, 0x00, 0x00, 0x00)}}
	if err := start(t, s, minStartLow); err != nil {
		t.Fatal(err)
	}
	// Sample every µs and collapse into runs.
	type run struct {
		l gpio.Level
		n int
	}
	var runs []run
	for range respondDelay + ackLow + ackHigh + 2*bitLow + oneHigh + 10 {
		l := s.Read()
		if len(runs) == 0 || runs[len(runs)-1].l != l {
			runs = append(runs, run{l, 0})
		}
		runs[len(runs)-1].n++
	}
	want := []run{
		{gpio.High, respondDelay},
		{gpio.Low, ackLow},
		{gpio.High, ackHigh},
		{gpio.Low, bitLow},
		{gpio.High, oneHigh},
		{gpio.Low, bitLow},
	}
	for i, w := range want {
		if i >= len(runs) || runs[i] != w {
			t.Fatalf("run %d: got %v, want %v", i, runs, want)
		}
	}
}

func TestSensor_shortStart(t *testing.T) {
	s := &Sensor{Transfers: []Transfer{NewTransfer(0x32, 0x00, 0x1b, 0x00)}}
	if err := start(t, s, minStartLow-1); err != nil {
		t.Fatal(err)
	}
	for range 500 {
		if s.Read() != gpio.High {
			t.Fatal("sensor answered a short start signal")
		}
	}
	if s.Count != 0 {
		t.Errorf("Count = %d", s.Count)
	}
}

func TestSensor_exhausted(t *testing.T) {
	s := &Sensor{Transfers: []Transfer{{Silent: true}}}
	if err := start(t, s, minStartLow); err != nil {
		t.Fatal(err)
	}
	if err := start(t, s, minStartLow); err == nil {
		t.Fatal("expected error once transfers are exhausted")
	}

	s = &Sensor{Transfers: []Transfer{{Silent: true}}, Loop: true}
	for range 3 {
		if err := start(t, s, minStartLow); err != nil {
			t.Fatal(err)
		}
	}
	if s.Count != 1 {
		t.Errorf("Count = %d", s.Count)
	}
}

func TestSensor_outWhileInput(t *testing.T) {
	s := &Sensor{}
	if err := s.Out(gpio.Low); err == nil {
		t.Fatal("expected error")
	}
}
