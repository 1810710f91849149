package overlay

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/adamscao/certstamp/internal/models"
	"github.com/adamscao/certstamp/pkg/pdfutil"
)

// Compositor burns the QR code and signature text into page 1
type Compositor struct {
	Placement Placement
	Typeface  *Typeface
	Conf      *model.Configuration
}

// NewCompositor returns a compositor with the default placement. A nil
// typeface selects DefaultTypeface.
func NewCompositor(tf *Typeface) *Compositor {
	if tf == nil {
		tf = DefaultTypeface()
	}
	return &Compositor{
		Placement: DefaultPlacement(),
		Typeface:  tf,
		Conf:      pdfutil.Configuration(),
	}
}

// Plan resolves the layout for doc without touching it
func (c *Compositor) Plan(doc []byte, line string) (*Layout, error) {
	conf := *c.Conf
	width, height, err := pdfutil.FirstPageSize(doc, &conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDocumentUnreadable, err)
	}

	size := c.Placement.FontSize
	lines := c.Typeface.Wrap(line, size, c.Placement.BoxWidth)
	widths := make([]float64, len(lines))
	for i, l := range lines {
		widths[i] = c.Typeface.Width(l, size)
	}

	layout, err := c.Placement.ComputeLayout(width, height, lines, widths)
	if err != nil {
		return nil, err
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	return layout, nil
}

// Apply returns a copy of doc with qrPNG and line stamped on page 1. Both
// overlays are written in a single pass: either the result carries both
// or an error is returned. doc is never modified.
func (c *Compositor) Apply(doc, qrPNG []byte, line string) ([]byte, *Layout, error) {
	layout, err := c.Plan(doc, line)
	if err != nil {
		return nil, nil, err
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(qrPNG))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to read qr image: %v", models.ErrRenderingFailed, err)
	}
	if cfg.Width == 0 {
		return nil, nil, fmt.Errorf("%w: empty qr image", models.ErrRenderingFailed)
	}

	qrDesc := fmt.Sprintf("pos:bl, off:%.2f %.2f, scalefactor:%.4f abs, rot:0, op:1",
		layout.QR.X0, layout.QR.Y0, layout.QR.Width()/float64(cfg.Width))
	qr, err := api.ImageWatermarkForReader(bytes.NewReader(qrPNG), qrDesc, true, false, types.POINTS)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: qr overlay: %v", models.ErrRenderingFailed, err)
	}

	wms := []*model.Watermark{qr}
	for _, tl := range layout.Lines {
		desc := fmt.Sprintf("font:%s, points:%.0f, pos:br, off:%.2f %.2f, scalefactor:1 abs, rot:0, fillc:#000000, op:1",
			c.Typeface.Name, layout.FontSize, tl.Rect.X1-layout.Page.X1, tl.Rect.Y0)
		wm, err := api.TextWatermark(tl.Text, desc, true, false, types.POINTS)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: signature overlay: %v", models.ErrRenderingFailed, err)
		}
		wms = append(wms, wm)
	}

	// pdfcpu records the running command on its configuration
	conf := *c.Conf

	var out bytes.Buffer
	if err := api.AddWatermarksSliceMap(bytes.NewReader(doc), &out, map[int][]*model.Watermark{1: wms}, &conf); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", models.ErrRenderingFailed, err)
	}

	stamped := out.Bytes()
	if err := pdfutil.Validate(stamped, c.Conf); err != nil {
		return nil, nil, fmt.Errorf("%w: stamped document: %v", models.ErrRenderingFailed, err)
	}
	same, err := pdfutil.SizeMatches(doc, stamped)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: stamped document: %v", models.ErrRenderingFailed, err)
	}
	if !same {
		return nil, nil, fmt.Errorf("%w: stamped document changed page count or size", models.ErrRenderingFailed)
	}

	return stamped, layout, nil
}
