// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewReadError(t *testing.T) {
	timeout1 := &TimeoutError{State: AwaitingAck}
	timeout2 := &TimeoutError{State: SamplingBits, Bits: 12}
	checksum := &ChecksumError{Want: 0x4d, Got: 0x4e}
	length := &ProtocolError{Kind: FrameLength, Detail: "got 39 pulses, want 40"}
	outOfRange := &ProtocolError{Kind: OutOfRange, Detail: "humidity 120%rH"}
	pin := fmt.Errorf("dht11: Handshaking: %w", errors.New("pin busy"))
	stuck := errors.Join(timeout2, &PortError{State: Idle, Err: errors.New("pin busy")})

	for _, tc := range []struct {
		name string
		errs []error
		want error
	}{
		{"single", []error{timeout1}, timeout1},
		{"timeouts keep the latest", []error{timeout1, timeout2}, timeout2},
		{"checksum over timeouts", []error{timeout1, checksum, timeout2}, checksum},
		{"checksum first", []error{checksum, timeout1, timeout2}, checksum},
		{"frame length over timeout", []error{length, timeout1}, length},
		{"checksum over frame length", []error{checksum, length}, checksum},
		{"out of range ties with checksum", []error{checksum, outOfRange}, outOfRange},
		{"port error first", []error{checksum, pin, outOfRange}, pin},
		{"port error joined to a timeout", []error{stuck, checksum, timeout1}, stuck},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e := newReadError(tc.errs)
			if e.Err != tc.want {
				t.Errorf("Err = %v, want %v", e.Err, tc.want)
			}
			if len(e.Attempts) != len(tc.errs) {
				t.Errorf("%d attempts, want %d", len(e.Attempts), len(tc.errs))
			}
			if !errors.Is(e, tc.want) {
				t.Errorf("errors.Is(%v, %v) = false", e, tc.want)
			}
		})
	}
}

func TestReadError_As(t *testing.T) {
	var err error = newReadError([]error{&TimeoutError{}, &ChecksumError{}, &TimeoutError{}})
	var ce *ChecksumError
	if !errors.As(err, &ce) {
		t.Fatal("expected ChecksumError")
	}
	var te *TimeoutError
	if errors.As(err, &te) {
		t.Fatal("unexpected TimeoutError")
	}
	if s := err.Error(); !strings.Contains(s, "3 attempt") || !strings.Contains(s, "checksum") {
		t.Errorf("unexpected message %q", s)
	}
}

func TestErrorMessages(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want string
	}{
		{&TimeoutError{State: AwaitingAck}, "dht11: timeout in AwaitingAck, sensor absent or not ready"},
		{&TimeoutError{State: SamplingBits, Bits: 7}, "dht11: timeout after 7 of 40 bits, incomplete frame"},
		{&ChecksumError{Want: 0x4d, Got: 0x4e}, "dht11: checksum mismatch, computed 0x4d, received 0x4e"},
		{&ProtocolError{Kind: OutOfRange, Detail: "x"}, "dht11: out of range: x"},
		{&ProtocolError{Kind: FrameLength, Detail: "y"}, "dht11: frame length: y"},
	} {
		if s := tc.err.Error(); s != tc.want {
			t.Errorf("%q != %q", s, tc.want)
		}
	}
}

func TestState_String(t *testing.T) {
	want := []string{"Idle", "Handshaking", "AwaitingAck", "SamplingBits", "Decoding", "Done"}
	for i, w := range want {
		if s := State(i).String(); s != w {
			t.Errorf("State(%d) = %q, want %q", i, s, w)
		}
	}
	if s := State(42).String(); s != "State(42)" {
		t.Errorf("unexpected %q", s)
	}
}
