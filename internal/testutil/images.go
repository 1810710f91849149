package testutil

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PageImages decodes every image placed on the given page of doc
func PageImages(doc []byte, page int) ([]image.Image, error) {
	var imgs []image.Image

	digest := func(img model.Image, singleImgPerPage bool, maxPageDigits int) error {
		decoded, _, err := image.Decode(img)
		if err != nil {
			return err
		}
		imgs = append(imgs, decoded)
		return nil
	}

	err := api.ExtractImages(bytes.NewReader(doc), []string{strconv.Itoa(page)}, digest, model.NewDefaultConfiguration())
	if err != nil {
		return nil, err
	}

	return imgs, nil
}
