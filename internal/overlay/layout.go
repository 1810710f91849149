// Package overlay places the QR code and signature text on page 1 of a
// certificate. Coordinates are PDF user space: points, origin bottom-left.
package overlay

import (
	"fmt"

	"github.com/adamscao/certstamp/internal/models"
)

// Rect is an axis aligned rectangle
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Width returns the horizontal extent
func (r Rect) Width() float64 { return r.X1 - r.X0 }

// Height returns the vertical extent
func (r Rect) Height() float64 { return r.Y1 - r.Y0 }

// Contains reports whether o lies fully inside r
func (r Rect) Contains(o Rect) bool {
	return o.X0 >= r.X0 && o.Y0 >= r.Y0 && o.X1 <= r.X1 && o.Y1 <= r.Y1
}

// Overlaps reports whether r and o share any area
func (r Rect) Overlaps(o Rect) bool {
	return r.X0 < o.X1 && o.X0 < r.X1 && r.Y0 < o.Y1 && o.Y0 < r.Y1
}

// Placement is the fixed placement rule. Distances are measured from the
// page edges so the rule holds for any page size.
type Placement struct {
	QRSize      float64 // side of the QR square
	QRMargin    float64 // gap between QR and the left and bottom edges
	BoxWidth    float64
	BoxHeight   float64
	BoxRight    float64 // gap between signature box and the right edge
	BoxBottom   float64 // gap between signature box and the bottom edge
	FontSize    float64
	LineSpacing float64 // line height as a multiple of FontSize
}

// DefaultPlacement mirrors the stamps already issued: a 120pt QR 30pt in
// from the bottom-left corner and a 320x40pt box 30pt from the right and
// 10pt from the bottom holding 10pt text
func DefaultPlacement() Placement {
	return Placement{
		QRSize:      120,
		QRMargin:    30,
		BoxWidth:    320,
		BoxHeight:   40,
		BoxRight:    30,
		BoxBottom:   10,
		FontSize:    10,
		LineSpacing: 1.2,
	}
}

// TextLine is one right aligned line inside the signature box
type TextLine struct {
	Text string
	Rect Rect
}

// Layout is the resolved placement for one page
type Layout struct {
	Page         Rect
	QR           Rect
	SignatureBox Rect
	Lines        []TextLine
	FontSize     float64
}

// ComputeLayout resolves p for a page of the given size. lines and widths
// are the wrapped signature lines and their measured widths at p.FontSize.
func (p Placement) ComputeLayout(pageWidth, pageHeight float64, lines []string, widths []float64) (*Layout, error) {
	if len(lines) != len(widths) {
		return nil, fmt.Errorf("%w: %d lines but %d widths", models.ErrRenderingFailed, len(lines), len(widths))
	}

	l := &Layout{
		Page: Rect{0, 0, pageWidth, pageHeight},
		QR: Rect{
			X0: p.QRMargin,
			Y0: p.QRMargin,
			X1: p.QRMargin + p.QRSize,
			Y1: p.QRMargin + p.QRSize,
		},
		SignatureBox: Rect{
			X0: pageWidth - p.BoxRight - p.BoxWidth,
			Y0: p.BoxBottom,
			X1: pageWidth - p.BoxRight,
			Y1: p.BoxBottom + p.BoxHeight,
		},
		FontSize: p.FontSize,
	}

	// lines hang from the top of the box, right edges flush
	lineHeight := p.FontSize * p.LineSpacing
	top := l.SignatureBox.Y1
	for i, text := range lines {
		l.Lines = append(l.Lines, TextLine{
			Text: text,
			Rect: Rect{
				X0: l.SignatureBox.X1 - widths[i],
				Y0: top - float64(i+1)*lineHeight,
				X1: l.SignatureBox.X1,
				Y1: top - float64(i)*lineHeight,
			},
		})
	}

	return l, nil
}

// Validate checks the layout fits the page and the two overlays stay apart
func (l *Layout) Validate() error {
	if !l.Page.Contains(l.QR) {
		return fmt.Errorf("%w: qr code %v outside page %v", models.ErrRenderingFailed, l.QR, l.Page)
	}
	if !l.Page.Contains(l.SignatureBox) {
		return fmt.Errorf("%w: signature box %v outside page %v", models.ErrRenderingFailed, l.SignatureBox, l.Page)
	}
	if l.QR.Overlaps(l.SignatureBox) {
		return fmt.Errorf("%w: qr code %v overlaps signature box %v", models.ErrRenderingFailed, l.QR, l.SignatureBox)
	}

	for _, line := range l.Lines {
		if !l.SignatureBox.Contains(line.Rect) {
			return fmt.Errorf("%w: text %q does not fit the signature box", models.ErrRenderingFailed, line.Text)
		}
	}

	return nil
}
