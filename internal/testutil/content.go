package testutil

import (
	"bytes"
	"io"
	"regexp"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Placement is where a content stream draws an XObject
type Placement struct {
	Name string
	X, Y float64
}

var placementRe = regexp.MustCompile(`(?:[-0-9.]+\s+){4}([-0-9.]+)\s+([-0-9.]+)\s+cm\s*/(\S+)\s+Do`)

// DecodedStreams returns the decoded content of every stream object in doc
func DecodedStreams(doc []byte) ([]string, error) {
	ctx, err := api.ReadContext(bytes.NewReader(doc), model.NewDefaultConfiguration())
	if err != nil {
		return nil, err
	}

	var streams []string
	for _, entry := range ctx.XRefTable.Table {
		if entry == nil || entry.Object == nil {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		if err := sd.Decode(); err != nil {
			// image data with filters pdfcpu does not decode
			continue
		}
		streams = append(streams, string(sd.Content))
	}

	return streams, nil
}

// PageContent returns the decoded content stream of one page
func PageContent(doc []byte, page int) (string, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(doc), model.NewDefaultConfiguration())
	if err != nil {
		return "", err
	}

	r, err := pdfcpu.ExtractPageContent(ctx, page)
	if err != nil {
		return "", err
	}
	if r == nil {
		return "", nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Placements lists every "<matrix> cm /Name Do" in the given streams
func Placements(streams []string) []Placement {
	var out []Placement
	for _, s := range streams {
		for _, m := range placementRe.FindAllStringSubmatch(s, -1) {
			x, errX := strconv.ParseFloat(m[1], 64)
			y, errY := strconv.ParseFloat(m[2], 64)
			if errX != nil || errY != nil {
				continue
			}
			out = append(out, Placement{Name: m[3], X: x, Y: y})
		}
	}
	return out
}
