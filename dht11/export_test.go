// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import (
	"context"
	"time"
)

// SetSleep replaces the wait used between attempts.
func SetSleep(d *Dev, f func(ctx context.Context, d time.Duration) error) {
	d.sleep = f
}
