// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"periph.io/x/conn/v3/physic"
)

func frameOf(b0, b1, b2, b3 byte) Frame {
	return Frame{b0, b1, b2, b3, b0 + b1 + b2 + b3}
}

func TestFrame_Reading(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, tc := range []struct {
		name  string
		frame Frame
		sign  SignPolicy
		want  Reading
	}{
		{
			name:  "integral only",
			frame: frameOf(0x32, 0x00, 0x1b, 0x00),
			want:  Reading{Humidity: 50 * physic.PercentRH, Temperature: physic.ZeroCelsius + 27*physic.Celsius, Time: now},
		},
		{
			name:  "decimals",
			frame: frameOf(0x32, 0x05, 0x1b, 0x03),
			want: Reading{
				Humidity:    50*physic.PercentRH + 5*physic.PercentRH/10,
				Temperature: physic.ZeroCelsius + 27*physic.Celsius + 3*physic.Celsius/10,
				Time:        now,
			},
		},
		{
			name:  "limits",
			frame: frameOf(100, 0x00, 0x00, 0x00),
			want:  Reading{Humidity: 100 * physic.PercentRH, Temperature: physic.ZeroCelsius, Time: now},
		},
		{
			name:  "negative integral",
			frame: frameOf(0x41, 0x00, 0x85, 0x02),
			sign:  SignInIntegral,
			want: Reading{
				Humidity:    65 * physic.PercentRH,
				Temperature: physic.ZeroCelsius - 5*physic.Celsius - 2*physic.Celsius/10,
				Time:        now,
			},
		},
		{
			name:  "positive with sign policy",
			frame: frameOf(0x41, 0x00, 0x05, 0x02),
			sign:  SignInIntegral,
			want: Reading{
				Humidity:    65 * physic.PercentRH,
				Temperature: physic.ZeroCelsius + 5*physic.Celsius + 2*physic.Celsius/10,
				Time:        now,
			},
		},
		{
			name:  "negative decimal",
			frame: frameOf(0x20, 0x00, 0x05, 0x83),
			sign:  SignInDecimal,
			want: Reading{
				Humidity:    32 * physic.PercentRH,
				Temperature: physic.ZeroCelsius - 5*physic.Celsius - 3*physic.Celsius/10,
				Time:        now,
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			r, err := tc.frame.Reading(tc.sign, now)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tc.want, r); diff != "" {
				t.Errorf("Reading() difference (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFrame_Reading_outOfRange(t *testing.T) {
	for _, tc := range []struct {
		name  string
		frame Frame
		sign  SignPolicy
	}{
		{"humidity", frameOf(101, 0x00, 0x19, 0x00), Unsigned},
		{"humidity decimal", frameOf(100, 0x01, 0x19, 0x00), Unsigned},
		{"decimal byte", frameOf(0x32, 0x0a, 0x19, 0x00), Unsigned},
		{"temperature decimal byte", frameOf(0x32, 0x00, 0x19, 0x0a), Unsigned},
		{"hot", frameOf(0x32, 0x00, 61, 0x00), Unsigned},
		{"sign bit read unsigned", frameOf(0x32, 0x00, 0x85, 0x00), Unsigned},
		{"cold", frameOf(0x32, 0x00, 0x80|21, 0x00), SignInIntegral},
		{"sign bit in decimal read as integral", frameOf(0x32, 0x00, 0x05, 0x83), SignInIntegral},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.frame.Reading(tc.sign, time.Time{})
			var pe *ProtocolError
			if !errors.As(err, &pe) || pe.Kind != OutOfRange {
				t.Errorf("expected OutOfRange, got %v", err)
			}
		})
	}
}

func TestFrame_Reading_invalidSign(t *testing.T) {
	if _, err := frameOf(0x32, 0x00, 0x19, 0x00).Reading(SignPolicy(9), time.Time{}); err == nil {
		t.Fatal("expected error")
	}
}
