package mongostore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamscao/certstamp/internal/models"
)

// connect returns a store on a throwaway collection, or skips when no
// server is configured
func connect(t *testing.T) *Store {
	t.Helper()

	uri := os.Getenv("CERTSTAMP_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CERTSTAMP_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	collection := fmt.Sprintf("users_test_%d", time.Now().UnixNano())
	store, err := Connect(ctx, uri, "certstamp_test", collection, 5*time.Second)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.collection.Drop(ctx)
		store.Close(ctx)
	})
	return store
}

func TestFindHolder(t *testing.T) {
	store := connect(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, &models.Holder{
		HolderID: "APAAR002",
		Name:     "Asha Rao",
		Certificates: []models.CertificateEntry{
			{CertificateID: "CERT123", DocumentLocation: "https://drive.example/cert123.pdf"},
		},
	}))
	require.NoError(t, store.AddCertificate(ctx, "APAAR002", models.CertificateEntry{CertificateID: "CERT124"}))

	holder, err := store.FindHolder(ctx, "APAAR002")
	require.NoError(t, err)
	require.Len(t, holder.Certificates, 2)
	assert.Equal(t, "https://drive.example/cert123.pdf", holder.Certificate("CERT123").DocumentLocation)
	assert.Nil(t, holder.Certificate("CERT999"))

	err = store.AddCertificate(ctx, "APAAR002", models.CertificateEntry{CertificateID: "CERT124"})
	assert.Error(t, err)

	holders, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, holders, 1)
}

func TestFindHolderNotFound(t *testing.T) {
	store := connect(t)

	_, err := store.FindHolder(context.Background(), "NOPE")
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = store.AddCertificate(context.Background(), "NOPE", models.CertificateEntry{CertificateID: "C"})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCreateRejectsDuplicateHolder(t *testing.T) {
	store := connect(t)
	ctx := context.Background()
	require.NoError(t, store.EnsureIndexes(ctx))

	require.NoError(t, store.Create(ctx, &models.Holder{HolderID: "APAAR002", Name: "Asha Rao"}))

	err := store.Create(ctx, &models.Holder{HolderID: "APAAR002", Name: "Someone Else"})
	assert.ErrorIs(t, err, models.ErrAlreadyExists)

	n, err := store.collection.CountDocuments(ctx, map[string]string{"apaarID": "APAAR002"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, store.AddCertificate(ctx, "APAAR002", models.CertificateEntry{CertificateID: "CERT123"}))
	err = store.AddCertificate(ctx, "APAAR002", models.CertificateEntry{CertificateID: "CERT123"})
	assert.ErrorIs(t, err, models.ErrAlreadyExists)
}
