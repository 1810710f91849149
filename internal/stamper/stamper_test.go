package stamper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamscao/certstamp/internal/fetch"
	"github.com/adamscao/certstamp/internal/logging"
	"github.com/adamscao/certstamp/internal/models"
	"github.com/adamscao/certstamp/internal/overlay"
	"github.com/adamscao/certstamp/internal/qrcode"
	"github.com/adamscao/certstamp/internal/testutil"
	"github.com/adamscao/certstamp/pkg/pdfutil"
)

var (
	signDay   = time.Date(2026, time.October, 15, 9, 30, 0, 0, time.UTC)
	lineShape = regexp.MustCompile(`^Verified by EventDB \| Sign Date: \d{2}-\d{2}-\d{4} \| ID: [0-9a-f]{10}$`)
)

type fixture struct {
	stamper  *Stamper
	store    *testutil.MemoryStore
	out      afero.Fs
	docs     afero.Fs
	server   *httptest.Server
	requests atomic.Int32
}

func newFixture(t *testing.T, workers int, holders ...*models.Holder) *fixture {
	t.Helper()

	f := &fixture{
		store: testutil.NewMemoryStore(holders...),
		out:   afero.NewMemMapFs(),
		docs:  afero.NewMemMapFs(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/docs/a4.pdf", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(testutil.BlankPDF(2, testutil.A4[0], testutil.A4[1]))
	})
	mux.HandleFunc("/docs/letter.pdf", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		w.Write(testutil.BlankPDF(1, testutil.Letter[0], testutil.Letter[1]))
	})
	mux.HandleFunc("/docs/page.html", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		w.Write([]byte("<html>moved</html>"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)
		http.NotFound(w, r)
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)

	output, err := NewOutput(f.out, "output_pdfs")
	require.NoError(t, err)

	fetcher := &fetch.Router{
		HTTP: fetch.NewHTTPFetcher(5*time.Second, 0),
		File: &fetch.FileFetcher{Fs: f.docs},
	}

	f.stamper = New(
		f.store,
		fetcher,
		qrcode.DefaultEncoder(),
		overlay.NewCompositor(nil),
		output,
		f.store,
		logging.Discard(),
		Options{
			BaseURL:    "http://192.168.1.5:5000/",
			SystemName: "EventDB",
			Workers:    workers,
			Now:        func() time.Time { return signDay },
		},
	)

	return f
}

func (f *fixture) url(path string) string {
	return f.server.URL + path
}

func TestStampCertificateEndToEnd(t *testing.T) {
	f := newFixture(t, 1)

	outcome, err := f.stamper.StampCertificate(context.Background(), models.CertificateRecord{
		HolderID:         "APAAR002",
		CertificateID:    "CERT123",
		DocumentLocation: f.url("/docs/a4.pdf"),
	})
	require.NoError(t, err)

	assert.Equal(t, "CERT123_withQR.pdf", outcome.OutputName)
	assert.Equal(t, "http://192.168.1.5:5000/certificate/APAAR002/CERT123", outcome.Reference)
	assert.Equal(t, "Verified by EventDB | Sign Date: 15-10-2026 | ID: 1ba8259fc2", outcome.Signature.Line)
	assert.Regexp(t, lineShape, outcome.Signature.Line)

	stamped, err := afero.ReadFile(f.out, "output_pdfs/CERT123_withQR.pdf")
	require.NoError(t, err)
	require.NoError(t, pdfutil.Validate(stamped, nil))

	w, h, err := pdfutil.FirstPageSize(stamped, nil)
	require.NoError(t, err)
	assert.InDelta(t, testutil.A4[0], w, 0.01)
	assert.InDelta(t, testutil.A4[1], h, 0.01)

	imgs, err := testutil.PageImages(stamped, 1)
	require.NoError(t, err)
	require.Len(t, imgs, 1)

	text, err := testutil.DecodeQR(imgs[0])
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.1.5:5000/certificate/APAAR002/CERT123", text)
	assert.True(t, strings.HasSuffix(text, "/certificate/APAAR002/CERT123"))

	streams, err := testutil.DecodedStreams(stamped)
	require.NoError(t, err)
	assert.Contains(t, strings.Join(streams, "\n"), "ID: 1ba8259fc2) Tj")

	stamps := f.store.Stamps()
	require.Len(t, stamps, 1)
	assert.Equal(t, "15-10-2026", stamps[0].SignDate)
	assert.Equal(t, "1ba8259fc2", stamps[0].Token)
	assert.Equal(t, "CERT123_withQR.pdf", stamps[0].OutputName)
}

func TestStampCertificateLocalFile(t *testing.T) {
	f := newFixture(t, 1)
	require.NoError(t, afero.WriteFile(f.docs, "/incoming/cert.pdf", testutil.BlankPDF(1, testutil.Letter[0], testutil.Letter[1]), 0o644))

	for _, loc := range []string{"/incoming/cert.pdf", "file:///incoming/cert.pdf"} {
		outcome, err := f.stamper.StampCertificate(context.Background(), models.CertificateRecord{
			HolderID:         "APAAR002",
			CertificateID:    "LOCAL1",
			DocumentLocation: loc,
		})
		require.NoError(t, err, loc)
		assert.Equal(t, "LOCAL1_withQR.pdf", outcome.OutputName)
	}
}

func TestStampCertificateFailures(t *testing.T) {
	f := newFixture(t, 1)

	cases := []struct {
		name     string
		rec      models.CertificateRecord
		kind     error
		requests int32
	}{
		{
			name: "missing location",
			rec:  models.CertificateRecord{HolderID: "H1", CertificateID: "C1"},
			kind: models.ErrFetch,
		},
		{
			name: "invalid id is rejected before fetching",
			rec:  models.CertificateRecord{HolderID: "H1", CertificateID: "a/b", DocumentLocation: f.url("/docs/a4.pdf")},
			kind: models.ErrInvalidIdentifier,
		},
		{
			name:     "not found upstream",
			rec:      models.CertificateRecord{HolderID: "H1", CertificateID: "C2", DocumentLocation: f.url("/docs/gone.pdf")},
			kind:     models.ErrFetch,
			requests: 1,
		},
		{
			name:     "not a pdf",
			rec:      models.CertificateRecord{HolderID: "H1", CertificateID: "C3", DocumentLocation: f.url("/docs/page.html")},
			kind:     models.ErrDocumentUnreadable,
			requests: 1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := f.requests.Load()

			outcome, err := f.stamper.StampCertificate(context.Background(), tc.rec)
			assert.Nil(t, outcome)
			assert.ErrorIs(t, err, tc.kind)
			assert.Equal(t, tc.requests, f.requests.Load()-before)

			exists, err := afero.Exists(f.out, "output_pdfs/"+OutputName(tc.rec.CertificateID))
			require.NoError(t, err)
			assert.False(t, exists, "no partial output")
		})
	}

	assert.Empty(t, f.store.Stamps())
}

func TestStampHolderIsolatesFailures(t *testing.T) {
	for _, workers := range []int{1, 3} {
		holder := &models.Holder{
			HolderID: "APAAR002",
			Certificates: []models.CertificateEntry{
				{CertificateID: "CERT1"},
				{CertificateID: "CERT2"},
				{CertificateID: "CERT3"},
			},
		}
		f := newFixture(t, workers, holder)
		holder.Certificates[0].DocumentLocation = f.url("/docs/a4.pdf")
		holder.Certificates[2].DocumentLocation = f.url("/docs/letter.pdf")

		report, err := f.stamper.StampHolder(context.Background(), "APAAR002")
		require.NoError(t, err)

		require.Len(t, report.Stamped, 2)
		assert.Equal(t, "CERT1", report.Stamped[0].CertificateID)
		assert.Equal(t, "CERT3", report.Stamped[1].CertificateID)

		require.Len(t, report.Failed, 1)
		assert.Equal(t, "CERT2", report.Failed[0].CertificateID)
		assert.ErrorIs(t, report.Failed[0].Err, models.ErrFetch)
		assert.Contains(t, report.Failed[0].Err.Error(), "missing document location")

		files, err := afero.ReadDir(f.out, "output_pdfs")
		require.NoError(t, err)
		var names []string
		for _, fi := range files {
			names = append(names, fi.Name())
		}
		assert.ElementsMatch(t, []string{"CERT1_withQR.pdf", "CERT3_withQR.pdf"}, names)
	}
}

func TestStampHolderUnknownHolder(t *testing.T) {
	f := newFixture(t, 1)

	report, err := f.stamper.StampHolder(context.Background(), "NOBODY")
	assert.Nil(t, report)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStampHolderDuplicateCertificate(t *testing.T) {
	holder := &models.Holder{HolderID: "H1"}
	f := newFixture(t, 2, holder)
	holder.Certificates = []models.CertificateEntry{
		{CertificateID: "C1", DocumentLocation: f.url("/docs/a4.pdf")},
		{CertificateID: "C1", DocumentLocation: f.url("/docs/letter.pdf")},
	}

	report, err := f.stamper.StampHolder(context.Background(), "H1")
	require.NoError(t, err)

	require.Len(t, report.Stamped, 1)
	require.Len(t, report.Failed, 1)
	assert.ErrorIs(t, report.Failed[0].Err, models.ErrInvalidIdentifier)
}

func TestStampHolderCanceled(t *testing.T) {
	holder := &models.Holder{HolderID: "H1"}
	f := newFixture(t, 1, holder)
	holder.Certificates = []models.CertificateEntry{
		{CertificateID: "C1", DocumentLocation: f.url("/docs/a4.pdf")},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.stamper.StampHolder(ctx, "H1")
	require.NoError(t, err)
	assert.Empty(t, report.Stamped)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "canceled", Kind(report.Failed[0].Err))
	assert.Zero(t, f.requests.Load())
}

func TestOutputWriteReplaces(t *testing.T) {
	fs := afero.NewMemMapFs()
	out, err := NewOutput(fs, "out")
	require.NoError(t, err)

	_, err = out.Write("C1_withQR.pdf", []byte("first"))
	require.NoError(t, err)
	path, err := out.Write("C1_withQR.pdf", []byte("second"))
	require.NoError(t, err)
	assert.Equal(t, "out/C1_withQR.pdf", path)

	data, err := out.Read("C1_withQR.pdf")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	files, err := afero.ReadDir(fs, "out")
	require.NoError(t, err)
	assert.Len(t, files, 1, "no temp files left behind")
}

func TestKind(t *testing.T) {
	assert.Equal(t, "fetch_error", Kind(models.ErrFetch))
	assert.Equal(t, "rendering_failed", Kind(models.ErrRenderingFailed))
	assert.Equal(t, "internal", Kind(assert.AnError))
}

type chmodFailFs struct {
	afero.Fs
}

func (chmodFailFs) Chmod(name string, mode os.FileMode) error {
	return &os.PathError{Op: "chmod", Path: name, Err: os.ErrPermission}
}

func TestOutputWriteFailureKeepsPreviousDocument(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("out", 0o755))
	require.NoError(t, afero.WriteFile(mem, "out/C1_withQR.pdf", []byte("previous"), 0o644))

	out, err := NewOutput(chmodFailFs{Fs: mem}, "out")
	require.NoError(t, err)

	_, err = out.Write("C1_withQR.pdf", []byte("next"))
	require.Error(t, err)

	data, err := afero.ReadFile(mem, "out/C1_withQR.pdf")
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))

	files, err := afero.ReadDir(mem, "out")
	require.NoError(t, err)
	assert.Len(t, files, 1, "temp file removed")
}

func TestOutputWriteMode(t *testing.T) {
	fs := afero.NewMemMapFs()
	out, err := NewOutput(fs, "out")
	require.NoError(t, err)

	path, err := out.Write("C1_withQR.pdf", []byte("doc"))
	require.NoError(t, err)

	fi, err := fs.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), fi.Mode().Perm())
}
