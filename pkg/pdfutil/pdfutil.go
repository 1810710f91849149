// Package pdfutil wraps the pdfcpu calls used to inspect documents.
package pdfutil

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Configuration returns a relaxed pdfcpu configuration; issued
// certificates come out of all kinds of office tooling
func Configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Validate checks that doc parses as a PDF
func Validate(doc []byte, conf *model.Configuration) error {
	if conf == nil {
		conf = Configuration()
	}
	if err := api.Validate(bytes.NewReader(doc), conf); err != nil {
		return fmt.Errorf("failed to validate pdf: %w", err)
	}
	return nil
}

// PageCount returns the number of pages in doc
func PageCount(doc []byte, conf *model.Configuration) (int, error) {
	if conf == nil {
		conf = Configuration()
	}
	n, err := api.PageCount(bytes.NewReader(doc), conf)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}

// FirstPageSize returns the width and height of page 1 in points
func FirstPageSize(doc []byte, conf *model.Configuration) (width, height float64, err error) {
	if conf == nil {
		conf = Configuration()
	}

	dims, err := api.PageDims(bytes.NewReader(doc), conf)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read page dimensions: %w", err)
	}
	if len(dims) == 0 {
		return 0, 0, fmt.Errorf("document has no pages")
	}

	return dims[0].Width, dims[0].Height, nil
}

// SizeMatches reports whether two documents have the same page count and
// page 1 dimensions
func SizeMatches(a, b []byte) (bool, error) {
	conf := Configuration()

	na, err := PageCount(a, conf)
	if err != nil {
		return false, err
	}
	nb, err := PageCount(b, conf)
	if err != nil {
		return false, err
	}

	wa, ha, err := FirstPageSize(a, conf)
	if err != nil {
		return false, err
	}
	wb, hb, err := FirstPageSize(b, conf)
	if err != nil {
		return false, err
	}

	return na == nb && wa == wb && ha == hb, nil
}
