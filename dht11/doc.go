// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dht11 reads an AOSONG DHT11 humidity and temperature sensor over its
// single-wire, pulse-width encoded protocol.
//
// The host pulls the data line low for at least 18ms, releases it and switches
// the pin to input. The sensor acknowledges with ~80µs low and ~80µs high,
// then sends 40 bits, most significant first. Each bit starts with ~50µs low;
// the length of the following high pulse carries the value: ~27µs is a 0,
// ~70µs is a 1. The five bytes are humidity integral and decimal, temperature
// integral and decimal, and an 8-bit additive checksum.
//
// The timing is tight enough that individual reads fail regularly on a
// general purpose operating system. Dev.Read retries a bounded number of times
// and reports the most telling failure when every attempt fails.
//
// dht11.Dev implements physic.SenseEnv. The pressure is never set.
//
// # Datasheet
//
// https://www.mouser.com/datasheet/2/758/DHT11-Technical-Data-Sheet-Translated-Version-1143054.pdf
package dht11
