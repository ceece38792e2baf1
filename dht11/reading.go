// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"
)

// SignPolicy tells how a module encodes temperatures below 0°C.
//
// The base DHT11 cannot measure below 0°C. Some newer modules set the high bit
// of one of the temperature bytes instead. Decoding with the wrong policy
// corrupts readings, so there is no guessing.
type SignPolicy int

const (
	// Unsigned treats both temperature bytes as plain values.
	Unsigned SignPolicy = iota
	// SignInIntegral takes bit 7 of the temperature integral byte as the sign.
	SignInIntegral
	// SignInDecimal takes bit 7 of the temperature decimal byte as the sign.
	SignInDecimal
)

func (s SignPolicy) String() string {
	switch s {
	case Unsigned:
		return "Unsigned"
	case SignInIntegral:
		return "SignInIntegral"
	case SignInDecimal:
		return "SignInDecimal"
	default:
		return fmt.Sprintf("SignPolicy(%d)", int(s))
	}
}

// Plausible range of the sensor. Values outside of it that pass the checksum
// are garbage.
const (
	maxHumidity    = 100 * physic.PercentRH
	minTemperature = -20 * physic.Celsius
	maxTemperature = 60 * physic.Celsius
	maxDecimal     = 9
)

// Reading is one successful measurement.
type Reading struct {
	Humidity    physic.RelativeHumidity
	Temperature physic.Temperature
	// Time is when the frame was decoded.
	Time time.Time
}

func (r Reading) String() string {
	return fmt.Sprintf("%s %s", r.Temperature, r.Humidity)
}

// Reading interprets a frame that passed DecodeFrame.
//
// The decimal bytes are tenths. A frame holding values the sensor cannot
// produce returns a ProtocolError of kind OutOfRange.
func (f Frame) Reading(sign SignPolicy, t time.Time) (Reading, error) {
	ti, td := f[2], f[3]
	negative := false
	switch sign {
	case Unsigned:
	case SignInIntegral:
		negative = ti&0x80 != 0
		ti &^= 0x80
	case SignInDecimal:
		negative = td&0x80 != 0
		td &^= 0x80
	default:
		return Reading{}, fmt.Errorf("dht11: invalid sign policy %s", sign)
	}
	if f[1] > maxDecimal || td > maxDecimal {
		return Reading{}, &ProtocolError{Kind: OutOfRange, Detail: fmt.Sprintf("decimal byte above %d in %s", maxDecimal, f)}
	}

	h := physic.RelativeHumidity(f[0])*physic.PercentRH + physic.RelativeHumidity(f[1])*physic.PercentRH/10
	if h > maxHumidity {
		return Reading{}, &ProtocolError{Kind: OutOfRange, Detail: "humidity " + h.String()}
	}
	c := physic.Temperature(ti)*physic.Celsius + physic.Temperature(td)*physic.Celsius/10
	if negative {
		c = -c
	}
	if c < minTemperature || c > maxTemperature {
		return Reading{}, &ProtocolError{Kind: OutOfRange, Detail: "temperature " + (c + physic.ZeroCelsius).String()}
	}
	return Reading{Humidity: h, Temperature: c + physic.ZeroCelsius, Time: t}, nil
}
