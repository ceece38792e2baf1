// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dht11

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Opts holds the configuration options for the device.
type Opts struct {
	// Timing holds the protocol timings. Zero fields use DefaultTiming.
	Timing Timing
	// Sign selects how temperatures below 0°C are encoded. Default is
	// Unsigned, as the base DHT11 does not measure below 0°C.
	Sign SignPolicy
	// Attempts is the number of attempts made by Read. Must be at least 1.
	// Default is 5.
	Attempts int
	// RetryDelay is the wait between two attempts of Read. The sensor needs
	// at least 1s between two requests to settle. Default is 1s.
	RetryDelay time.Duration
	// MinInterval is the minimum time between the end of one attempt and the
	// start of the next, across calls and retries. The first attempt also
	// waits MinInterval after the Dev is created. 0 disables it. Default is 1s.
	MinInterval time.Duration
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{
	Timing:      DefaultTiming,
	Sign:        Unsigned,
	Attempts:    5,
	RetryDelay:  time.Second,
	MinInterval: time.Second,
}

// Dev is a handle to a DHT11 sensor.
type Dev struct {
	name    string
	opts    Opts
	sampler Sampler

	mu   sync.Mutex
	last time.Time // end of the last attempt, or creation

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	cmu    sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a Dev reading the sensor wired to p. The Opts can be nil.
func New(p gpio.PinIO, opts *Opts) (*Dev, error) {
	return NewPort(NewPinPort(p), opts)
}

// NewPort returns a Dev reading the sensor through port. The Opts can be nil.
//
// The line is driven high so the sensor is idle before the first read, which
// waits Opts.MinInterval.
func NewPort(port Port, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	o := *opts
	o.Timing = o.Timing.withDefaults()
	if err := o.Timing.validate(); err != nil {
		return nil, err
	}
	if o.Attempts < 1 {
		return nil, fmt.Errorf("dht11: Attempts is %d, must be at least 1", o.Attempts)
	}
	if o.RetryDelay < 0 || o.MinInterval < 0 {
		return nil, errors.New("dht11: negative delay")
	}
	name := "port"
	if s, ok := port.(fmt.Stringer); ok {
		name = s.String()
	}
	d := &Dev{
		name:    name,
		opts:    o,
		sampler: Sampler{Port: port, Timing: o.Timing},
		now:     time.Now,
		sleep:   sleepContext,
	}
	if err := d.sampler.idle(); err != nil {
		return nil, err
	}
	// The sensor needs MinInterval after power on before the first request.
	d.last = d.now()
	return d, nil
}

// ReadSensor reads the sensor behind port once, with up to maxAttempts
// attempts spaced by retryDelay. negativeTemperature selects SignInIntegral
// over Unsigned.
func ReadSensor(port Port, maxAttempts uint32, retryDelay time.Duration, negativeTemperature bool) (Reading, error) {
	opts := DefaultOpts
	opts.Attempts = int(maxAttempts)
	opts.RetryDelay = retryDelay
	if negativeTemperature {
		opts.Sign = SignInIntegral
	}
	d, err := NewPort(port, &opts)
	if err != nil {
		return Reading{}, err
	}
	return d.Read(context.Background())
}

// Read reads the sensor with the attempts and delay from Opts.
func (d *Dev) Read(ctx context.Context) (Reading, error) {
	return d.ReadRetry(ctx, d.opts.Attempts, d.opts.RetryDelay)
}

// ReadRetry makes up to maxAttempts attempts, waiting delay after each
// failed one, and returns the first Reading. The wait is stretched so that
// attempts stay Opts.MinInterval apart.
//
// When all attempts fail the error is a *ReadError. The context is only
// checked while waiting; an attempt in progress always completes.
func (d *Dev) ReadRetry(ctx context.Context, maxAttempts int, delay time.Duration) (Reading, error) {
	if maxAttempts < 1 {
		return Reading{}, fmt.Errorf("dht11: maxAttempts is %d, must be at least 1", maxAttempts)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.settle(ctx); err != nil {
		return Reading{}, err
	}
	errs := make([]error, 0, maxAttempts)
	for i := range maxAttempts {
		if i > 0 {
			w := delay
			if m := d.opts.MinInterval - d.now().Sub(d.last); m > w {
				w = m
			}
			if err := d.sleep(ctx, w); err != nil {
				return Reading{}, fmt.Errorf("%w: %w", err, newReadError(errs))
			}
		}
		r, err := d.attempt()
		if err == nil {
			return r, nil
		}
		errs = append(errs, err)
	}
	return Reading{}, newReadError(errs)
}

// ReadOnce makes a single attempt. Errors are returned as is.
func (d *Dev) ReadOnce() (Reading, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.settle(context.Background()); err != nil {
		return Reading{}, err
	}
	return d.attempt()
}

// Sense implements physic.SenseEnv. It reads like Read; the pressure is not
// modified.
func (d *Dev) Sense(e *physic.Env) error {
	r, err := d.Read(context.Background())
	if err != nil {
		return err
	}
	e.Temperature = r.Temperature
	e.Humidity = r.Humidity
	return nil
}

// SenseContinuous implements physic.SenseEnv. Failed reads are skipped. The
// interval cannot be shorter than Opts.MinInterval. Call Halt to stop.
func (d *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if interval <= 0 || interval < d.opts.MinInterval {
		return nil, fmt.Errorf("dht11: invalid interval %s, minimum %s", interval, d.opts.MinInterval)
	}
	d.cmu.Lock()
	defer d.cmu.Unlock()
	if d.cancel != nil {
		return nil, errors.New("dht11: SenseContinuous already running")
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	ch := make(chan physic.Env, 16)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r, err := d.Read(ctx)
				if err != nil {
					continue
				}
				select {
				case ch <- physic.Env{Temperature: r.Temperature, Humidity: r.Humidity}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return ch, nil
}

// Precision implements physic.SenseEnv.
func (d *Dev) Precision(e *physic.Env) {
	e.Temperature = physic.Kelvin / 10
	e.Humidity = physic.PercentRH / 10
}

// Halt implements conn.Resource. It stops SenseContinuous.
func (d *Dev) Halt() error {
	d.cmu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.cmu.Unlock()
	if cancel != nil {
		cancel()
		d.wg.Wait()
	}
	return nil
}

func (d *Dev) String() string {
	return "dht11{" + d.name + "}"
}

// attempt runs Idle → Handshaking → AwaitingAck → SamplingBits → Decoding →
// Done once.
func (d *Dev) attempt() (Reading, error) {
	defer func() { d.last = d.now() }()
	p, err := d.sampler.Sample()
	if err != nil {
		return Reading{}, err
	}
	f, err := DecodeFrame(p, d.opts.Timing.Threshold)
	if err != nil {
		return Reading{}, err
	}
	return f.Reading(d.opts.Sign, d.now())
}

// settle waits until MinInterval passed since the last attempt.
func (d *Dev) settle(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.opts.MinInterval <= 0 || d.last.IsZero() {
		return nil
	}
	if w := d.opts.MinInterval - d.now().Sub(d.last); w > 0 {
		return d.sleep(ctx, w)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
