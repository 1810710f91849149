package verifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamscao/certstamp/internal/config"
	"github.com/adamscao/certstamp/internal/models"
	"github.com/adamscao/certstamp/internal/signature"
	"github.com/adamscao/certstamp/internal/testutil"
)

func fixedClock(day int) func() time.Time {
	return func() time.Time { return time.Date(2026, time.October, day, 18, 0, 0, 0, time.UTC) }
}

func newStore() *testutil.MemoryStore {
	return testutil.NewMemoryStore(&models.Holder{
		HolderID: "APAAR002",
		Name:     "Asha Rao",
		Certificates: []models.CertificateEntry{
			{CertificateID: "CERT123", Title: "Hackathon 2026", DocumentLocation: "https://files.example.org/cert123.pdf"},
			{CertificateID: "CERT124", Title: "Workshop"},
		},
	})
}

func TestVerifySameDay(t *testing.T) {
	svc := NewService(newStore(), "http://localhost:5000", "EventDB")
	svc.Now = fixedClock(15)

	res, err := svc.Verify(context.Background(), "APAAR002", "CERT123")
	require.NoError(t, err)

	assert.Equal(t, "Asha Rao", res.Holder.Name)
	assert.Equal(t, "Hackathon 2026", res.Certificate.Title)
	assert.Equal(t, "http://localhost:5000/certificate/APAAR002/CERT123", res.Reference)
	assert.Equal(t, "Verified by EventDB | Sign Date: 15-10-2026 | ID: 1ba8259fc2", res.Signature.Line)
	assert.False(t, res.Stamped)

	stamped := signature.Sign("EventDB", "APAAR002", "CERT123", time.Date(2026, time.October, 15, 8, 0, 0, 0, time.UTC))
	assert.Equal(t, stamped.Token, res.Signature.Token)
}

func TestVerifyTodayMismatchesNextDay(t *testing.T) {
	svc := NewService(newStore(), "http://localhost:5000", "EventDB")
	svc.Now = fixedClock(16)

	res, err := svc.Verify(context.Background(), "APAAR002", "CERT123")
	require.NoError(t, err)

	assert.Equal(t, "341434b0ec", res.Signature.Token)
	assert.NotEqual(t, "1ba8259fc2", res.Signature.Token)
}

func TestVerifyStampedDate(t *testing.T) {
	store := newStore()
	require.NoError(t, store.Record(context.Background(), &models.StampRecord{
		HolderID:      "APAAR002",
		CertificateID: "CERT123",
		SignDate:      "15-10-2026",
		Token:         "1ba8259fc2",
	}))

	svc := NewService(store, "http://localhost:5000", "EventDB")
	svc.Stamps = store
	svc.DateSource = config.DateSourceStamped
	svc.Now = fixedClock(20)

	res, err := svc.Verify(context.Background(), "APAAR002", "CERT123")
	require.NoError(t, err)
	assert.True(t, res.Stamped)
	assert.Equal(t, "1ba8259fc2", res.Signature.Token)

	// never stamped falls back to today
	res, err = svc.Verify(context.Background(), "APAAR002", "CERT124")
	require.NoError(t, err)
	assert.False(t, res.Stamped)
	assert.Equal(t, "20-10-2026", res.Signature.Date)
}

func TestVerifyNotFound(t *testing.T) {
	svc := NewService(newStore(), "http://localhost:5000", "EventDB")

	_, err := svc.Verify(context.Background(), "NOBODY", "CERT123")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.Verify(context.Background(), "APAAR002", "CERT999")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestVerifyInvalidIdentifier(t *testing.T) {
	store := newStore()
	store.FindErr = errors.New("must not be called")
	svc := NewService(store, "http://localhost:5000", "EventDB")

	for _, id := range []string{"", "..", "a b", "x%2F"} {
		_, err := svc.Verify(context.Background(), id, "CERT123")
		assert.ErrorIs(t, err, models.ErrInvalidIdentifier, id)
	}
}

func TestVerifyStoreFailure(t *testing.T) {
	store := newStore()
	store.FindErr = errors.New("connection refused")
	svc := NewService(store, "http://localhost:5000", "EventDB")

	_, err := svc.Verify(context.Background(), "APAAR002", "CERT123")
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrNotFound)
}
