package pdfutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamscao/certstamp/internal/testutil"
)

func TestFirstPageSize(t *testing.T) {
	for _, size := range [][2]float64{testutil.A4, testutil.Letter} {
		doc := testutil.BlankPDF(2, size[0], size[1])

		require.NoError(t, Validate(doc, nil))

		w, h, err := FirstPageSize(doc, nil)
		require.NoError(t, err)
		assert.InDelta(t, size[0], w, 0.01)
		assert.InDelta(t, size[1], h, 0.01)

		n, err := PageCount(doc, nil)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	}
}

func TestGarbageIsRejected(t *testing.T) {
	garbage := []byte("this is not a pdf")

	assert.Error(t, Validate(garbage, nil))

	_, _, err := FirstPageSize(garbage, nil)
	assert.Error(t, err)
}

func TestSizeMatches(t *testing.T) {
	a := testutil.BlankPDF(1, testutil.A4[0], testutil.A4[1])
	b := testutil.BlankPDF(1, testutil.A4[0], testutil.A4[1])
	c := testutil.BlankPDF(1, testutil.Letter[0], testutil.Letter[1])

	ok, err := SizeMatches(a, b)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = SizeMatches(a, c)
	require.NoError(t, err)
	assert.False(t, ok)
}
