// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import (
	"errors"
	"fmt"
)

// TimeoutError is returned when the sensor did not drive the line within the
// expected window. In AwaitingAck it usually means no sensor is connected or
// it is not powered; in SamplingBits the frame was cut short.
type TimeoutError struct {
	State State
	// Bits is the number of data bits received before the timeout.
	Bits int
}

func (e *TimeoutError) Error() string {
	if e.State == SamplingBits {
		return fmt.Sprintf("dht11: timeout after %d of %d bits, incomplete frame", e.Bits, FrameBits)
	}
	return fmt.Sprintf("dht11: timeout in %s, sensor absent or not ready", e.State)
}

// ProtocolErrorKind classifies a ProtocolError.
type ProtocolErrorKind int

const (
	// FrameLength means the sampler did not deliver exactly FrameBits pulses.
	FrameLength ProtocolErrorKind = iota
	// OutOfRange means the frame passed its checksum but holds values the
	// sensor cannot produce.
	OutOfRange
)

func (k ProtocolErrorKind) String() string {
	switch k {
	case FrameLength:
		return "frame length"
	case OutOfRange:
		return "out of range"
	default:
		return fmt.Sprintf("ProtocolErrorKind(%d)", int(k))
	}
}

// ProtocolError is returned for structurally invalid data.
type ProtocolError struct {
	Kind   ProtocolErrorKind
	Detail string
}

func (e *ProtocolError) Error() string {
	return "dht11: " + e.Kind.String() + ": " + e.Detail
}

// ChecksumError is returned when the checksum byte does not match the sum of
// the four data bytes. It points to electrical noise or a misread bit rather
// than a hardware fault.
type ChecksumError struct {
	// Want is the sum of the data bytes, Got the checksum byte received.
	Want, Got byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("dht11: checksum mismatch, computed 0x%02x, received 0x%02x", e.Want, e.Got)
}

// PortError is returned when the Port failed to drive or switch the line.
// It ranks above every sensor side error, including when joined to one.
type PortError struct {
	State State
	Err   error
}

func (e *PortError) Error() string {
	return "dht11: " + e.State.String() + ": " + e.Err.Error()
}

func (e *PortError) Unwrap() error {
	return e.Err
}

// ReadError is returned when every attempt of a read failed.
//
// Err is the most informative of the attempt errors and is what Unwrap
// returns, so errors.As matches its type. Attempts holds every attempt error
// in order.
type ReadError struct {
	Attempts []error
	Err      error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("dht11: read failed after %d attempt(s): %v", len(e.Attempts), e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

func newReadError(errs []error) *ReadError {
	r := &ReadError{Attempts: errs}
	best := -1
	for _, err := range errs {
		// Ties go to the latest attempt.
		if s := severity(err); s >= best {
			best = s
			r.Err = err
		}
	}
	return r
}

// severity ranks an attempt error by how much it says about the failure.
// Errors from the port itself rank above everything the sensor produced.
func severity(err error) int {
	var pte *PortError
	var te *TimeoutError
	var pe *ProtocolError
	var ce *ChecksumError
	switch {
	case errors.As(err, &pte):
		return 4
	case errors.As(err, &te):
		return 1
	case errors.As(err, &pe):
		if pe.Kind == FrameLength {
			return 2
		}
		return 3
	case errors.As(err, &ce):
		return 3
	default:
		return 4
	}
}
