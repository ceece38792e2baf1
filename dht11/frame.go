// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import (
	"fmt"
	"time"

	"github.com/GermanBionicSystems/dht/common"
)

// Frame is the raw data sent by the sensor: humidity integral and decimal,
// temperature integral and decimal, checksum.
type Frame [FrameBytes]byte

// Valid reports whether the checksum byte matches the data bytes.
func (f Frame) Valid() bool {
	return common.Sum8(f[:4]) == f[4]
}

func (f Frame) String() string {
	return fmt.Sprintf("Frame{% x}", f[:])
}

// DecodeFrame classifies each pulse against threshold, packs the bits most
// significant first and verifies the checksum.
//
// A pulse exactly at threshold is a 1. Only the durations are looked at.
//
// DecodeFrame has no side effect; decoding the same pulses always returns the
// same result.
func DecodeFrame(p Pulses, threshold time.Duration) (Frame, error) {
	var f Frame
	if len(p) != FrameBits {
		return f, &ProtocolError{Kind: FrameLength, Detail: fmt.Sprintf("got %d pulses, want %d", len(p), FrameBits)}
	}
	for i, pulse := range p {
		f[i/8] <<= 1
		if pulse.Duration >= threshold {
			f[i/8] |= 1
		}
	}
	if sum := common.Sum8(f[:4]); sum != f[4] {
		return f, &ChecksumError{Want: sum, Got: f[4]}
	}
	return f, nil
}
