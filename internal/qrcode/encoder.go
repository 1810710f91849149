// Package qrcode renders verification references as QR code images.
package qrcode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"

	"github.com/adamscao/certstamp/internal/config"
	"github.com/adamscao/certstamp/internal/models"
)

// Encoder holds the encoding parameters. The zero value is not usable,
// start from DefaultEncoder.
type Encoder struct {
	Level      qr.ErrorCorrectionLevel
	MaxVersion int // largest QR version a payload may grow to
	ModuleSize int // pixels per module
	Border     int // quiet zone, in modules
	Foreground color.Color
	Background color.Color
}

// DefaultEncoder returns medium error correction, 3px modules and a two
// module quiet zone
func DefaultEncoder() *Encoder {
	return &Encoder{
		Level:      qr.M,
		MaxVersion: 10,
		ModuleSize: 3,
		Border:     2,
		Foreground: color.Black,
		Background: color.White,
	}
}

// ParseLevel maps L, M, Q or H to an error correction level
func ParseLevel(s string) (qr.ErrorCorrectionLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L":
		return qr.L, nil
	case "", "M":
		return qr.M, nil
	case "Q":
		return qr.Q, nil
	case "H":
		return qr.H, nil
	default:
		return qr.M, fmt.Errorf("unknown error correction level %q", s)
	}
}

// Version returns the QR version a symbol of the given module width has
func Version(modules int) int {
	return (modules - 17) / 4
}

// Image encodes payload and returns the bordered, scaled raster
func (e *Encoder) Image(payload string) (image.Image, error) {
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", models.ErrInvalidIdentifier)
	}

	code, err := qr.Encode(payload, e.Level, qr.Auto)
	if err != nil {
		// boombuler reports overflow past version 40 this way
		return nil, fmt.Errorf("%w: %d bytes: %v", models.ErrPayloadTooLarge, len(payload), err)
	}

	modules := code.Bounds().Dx()
	if v := Version(modules); e.MaxVersion > 0 && v > e.MaxVersion {
		return nil, fmt.Errorf("%w: %d bytes need version %d, limit is %d",
			models.ErrPayloadTooLarge, len(payload), v, e.MaxVersion)
	}

	return e.render(code, modules), nil
}

// Encode encodes payload as a PNG
func (e *Encoder) Encode(payload string) ([]byte, error) {
	img, err := e.Image(payload)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}

	return buf.Bytes(), nil
}

// render paints the module grid onto an opaque RGBA image; the output
// only depends on the parameters and the payload
func (e *Encoder) render(code barcode.Barcode, modules int) image.Image {
	scale := e.ModuleSize
	if scale < 1 {
		scale = 1
	}
	side := (modules + 2*e.Border) * scale

	img := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(img, img.Bounds(), image.NewUniform(opaque(e.Background)), image.Point{}, draw.Src)
	fg := opaque(e.Foreground)

	origin := code.Bounds().Min
	for my := 0; my < modules; my++ {
		for mx := 0; mx < modules; mx++ {
			if !isDark(code.At(origin.X+mx, origin.Y+my)) {
				continue
			}
			x0 := (mx + e.Border) * scale
			y0 := (my + e.Border) * scale
			for y := y0; y < y0+scale; y++ {
				for x := x0; x < x0+scale; x++ {
					img.Set(x, y, fg)
				}
			}
		}
	}

	return img
}

func opaque(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	return color.RGBA64{R: uint16(r), G: uint16(g), B: uint16(b), A: 0xffff}
}

func isDark(c color.Color) bool {
	gray := color.GrayModel.Convert(c).(color.Gray)
	return gray.Y < 128
}

// FromConfig builds an encoder from the qr config section
func FromConfig(cfg config.QRConfig) (*Encoder, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	enc := DefaultEncoder()
	enc.Level = level
	if cfg.MaxVersion > 0 {
		enc.MaxVersion = cfg.MaxVersion
	}
	if cfg.ModuleSize > 0 {
		enc.ModuleSize = cfg.ModuleSize
	}
	if cfg.Border >= 0 {
		enc.Border = cfg.Border
	}
	return enc, nil
}
