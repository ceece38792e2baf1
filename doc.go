// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dht is a container for the DHT11 single-wire humidity and
// temperature sensor driver and its supporting packages.
//
// The driver itself lives in the dht11 package. The dht11test package
// simulates the sensor line for tests, gauge renders readings on a terminal
// and cmd/dht11 is a small command line reader.
package dht
