package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamscao/certstamp/internal/config"
	"github.com/adamscao/certstamp/internal/db/repository"
	"github.com/adamscao/certstamp/internal/logging"
	"github.com/adamscao/certstamp/internal/models"
)

func TestOpenSQLite(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Path = filepath.Join(t.TempDir(), "data", "certstamp.db")

	ctx := context.Background()
	s, err := Open(ctx, cfg, logging.Discard())
	require.NoError(t, err)
	defer s.Close(ctx)

	assert.IsType(t, &repository.HolderRepository{}, s.Holders)
	require.NotNil(t, s.Stamps)

	require.NoError(t, s.Holders.Create(ctx, &models.Holder{HolderID: "H1"}))
	require.NoError(t, s.Holders.AddCertificate(ctx, "H1", models.CertificateEntry{CertificateID: "C1"}))

	h, err := s.Holders.FindHolder(ctx, "H1")
	require.NoError(t, err)
	require.Len(t, h.Certificates, 1)
}

func TestOpenMongoUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = "mongo"
	cfg.Store.Path = ""
	cfg.Store.Mongo.URI = "mongodb://127.0.0.1:1"
	cfg.Store.Mongo.Timeout = "200ms"

	_, err := Open(context.Background(), cfg, logging.Discard())
	assert.Error(t, err)
}
