// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gauge shows humidity and temperature readings on a terminal as two
// bars of ANSI colored cells followed by the values.
//
// Useful while the sensor sits next to the keyboard.
package gauge

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/GermanBionicSystems/dht/dht11"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"
)

// Opts represents the options available for the gauge.
type Opts struct {
	// Width is the number of cells of each bar. Default is 20.
	Width int
	// Palette defaults to ansi256.Default.
	Palette *ansi256.Palette
	// MinTemperature and MaxTemperature are the ends of the temperature bar.
	// Default is 0°C to 50°C, the DHT11 measuring range.
	MinTemperature physic.Temperature
	MaxTemperature physic.Temperature

	_ struct{}
}

var (
	humidityColor = color.NRGBA{0x20, 0x70, 0xff, 0xff}
	coldColor     = color.NRGBA{0x30, 0x60, 0xff, 0xff}
	hotColor      = color.NRGBA{0xff, 0x30, 0x20, 0xff}
	emptyColor    = color.NRGBA{0x26, 0x26, 0x26, 0xff}
)

// Dev is a pair of bars, humidity then temperature, drawn on one line.
type Dev struct {
	w       io.Writer
	l       int
	palette ansi256.Palette
	minT    physic.Temperature
	maxT    physic.Temperature

	pixels []byte
	buf    bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	return NewWriter(colorable.NewColorableStdout(), opts)
}

// NewWriter returns a Dev that writes to w. The Opts can be nil.
func NewWriter(w io.Writer, opts *Opts) *Dev {
	if opts == nil {
		opts = &Opts{}
	}
	p := opts.Palette
	if p == nil {
		p = ansi256.Default
	}
	l := opts.Width
	if l <= 0 {
		l = 20
	}
	minT, maxT := opts.MinTemperature, opts.MaxTemperature
	if maxT <= minT {
		minT, maxT = physic.ZeroCelsius, physic.ZeroCelsius+50*physic.Celsius
	}
	return &Dev{
		w:       w,
		l:       l,
		palette: *p,
		minT:    minT,
		maxT:    maxT,
		pixels:  make([]byte, 3*2*l),
	}
}

func (d *Dev) String() string {
	return "Gauge"
}

// Halt implements conn.Resource.
//
// It ends the line and resets the colors so the terminal is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\n\033[0m"))
	return err
}

// Image returns the two bars for r, humidity then temperature, one pixel
// per cell. It fits Bounds and can be drawn on any display.Drawer.
func (d *Dev) Image(r dht11.Reading) *image.NRGBA {
	img := image.NewNRGBA(d.Bounds())
	h := cells(int64(r.Humidity), int64(100*physic.PercentRH), d.l)
	t := cells(int64(r.Temperature-d.minT), int64(d.maxT-d.minT), d.l)
	for i := range d.l {
		c := emptyColor
		if i < h {
			c = humidityColor
		}
		img.SetNRGBA(i, 0, c)
		c = emptyColor
		if i < t {
			c = blend(coldColor, hotColor, i, d.l)
		}
		img.SetNRGBA(d.l+i, 0, c)
	}
	return img
}

// Show draws the bars for r and prints its values after them.
func (d *Dev) Show(r dht11.Reading) error {
	if err := d.Draw(d.Bounds(), d.Image(r), image.Point{}); err != nil {
		return err
	}
	_, err := fmt.Fprintf(d.w, " %s %s", r.Humidity, r.Temperature)
	return err
}

// ColorModel implements display.Drawer.
func (d *Dev) ColorModel() color.Model {
	return color.NRGBAModel
}

// Bounds implements display.Drawer.
func (d *Dev) Bounds() image.Rectangle {
	return image.Rectangle{Max: image.Point{X: 2 * d.l, Y: 1}}
}

// Draw implements display.Drawer. Only the first row of src is used.
func (d *Dev) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	r = r.Intersect(d.Bounds())
	for x := r.Min.X; x < r.Max.X; x++ {
		d.set(x, color.NRGBAModel.Convert(src.At(sp.X+x-r.Min.X, sp.Y)).(color.NRGBA))
	}
	return d.refresh()
}

func (d *Dev) set(i int, c color.NRGBA) {
	d.pixels[3*i] = c.R
	d.pixels[3*i+1] = c.G
	d.pixels[3*i+2] = c.B
}

func (d *Dev) refresh() error {
	// Redraw in place on the current line.
	d.buf.Reset()
	_, _ = d.buf.WriteString("\r\033[0m")
	for i := 0; i < len(d.pixels)/3; i++ {
		if i == d.l {
			_, _ = d.buf.WriteString("\033[0m ")
		}
		c := color.NRGBA{d.pixels[3*i], d.pixels[3*i+1], d.pixels[3*i+2], 255}
		_, _ = io.WriteString(&d.buf, d.palette.Block(c))
	}
	_, _ = d.buf.WriteString("\033[0m")
	_, err := d.buf.WriteTo(d.w)
	return err
}

// cells returns how many of n cells v out of full fills, clamped to [0, n].
func cells(v, full int64, n int) int {
	if v <= 0 || full <= 0 {
		return 0
	}
	if v >= full {
		return n
	}
	return int((v*int64(n) + full/2) / full)
}

func blend(a, b color.NRGBA, i, n int) color.NRGBA {
	if n <= 1 {
		return b
	}
	mix := func(x, y uint8) uint8 {
		return uint8((int(x)*(n-1-i) + int(y)*i) / (n - 1))
	}
	return color.NRGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 0xff}
}

var _ display.Drawer = &Dev{}
var _ fmt.Stringer = &Dev{}
