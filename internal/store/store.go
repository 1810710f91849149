// Package store opens the record store selected in the configuration.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adamscao/certstamp/internal/config"
	"github.com/adamscao/certstamp/internal/db"
	"github.com/adamscao/certstamp/internal/db/mongostore"
	"github.com/adamscao/certstamp/internal/db/repository"
	"github.com/adamscao/certstamp/internal/models"
)

// Holders is what both record stores provide
type Holders interface {
	FindHolder(ctx context.Context, holderID string) (*models.Holder, error)
	Create(ctx context.Context, holder *models.Holder) error
	AddCertificate(ctx context.Context, holderID string, cert models.CertificateEntry) error
	List(ctx context.Context) ([]*models.Holder, error)
}

// Store bundles the holder records and the stamp log. Stamps always live
// in SQLite, also when holders come from MongoDB.
type Store struct {
	Holders Holders
	Stamps  *repository.StampRepository

	database *db.DB
	mongo    *mongostore.Store
}

// Open connects to the configured backend and runs migrations
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	s := &Store{}

	if cfg.Store.Path != "" {
		logger.Info("opening database", "path", cfg.Store.Path)
		database, err := db.New(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		if err := db.RunMigrations(database); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		s.database = database
		s.Stamps = repository.NewStampRepository(database.DB)
	}

	switch cfg.Store.Driver {
	case "mongo":
		logger.Info("connecting to mongo",
			"database", cfg.Store.Mongo.Database,
			"collection", cfg.Store.Mongo.Collection)
		ms, err := mongostore.Connect(ctx,
			cfg.Store.Mongo.URI,
			cfg.Store.Mongo.Database,
			cfg.Store.Mongo.Collection,
			cfg.GetMongoTimeout())
		if err != nil {
			s.Close(ctx)
			return nil, err
		}
		// legacy collections may carry duplicates; Create still checks
		if err := ms.EnsureIndexes(ctx); err != nil {
			logger.Warn("holder ids are not unique in mongo", "error", err)
		}
		s.mongo = ms
		s.Holders = ms
	default:
		if s.database == nil {
			return nil, fmt.Errorf("store.path is required for sqlite")
		}
		s.Holders = repository.NewHolderRepository(s.database.DB)
	}

	return s, nil
}

// Close releases every connection
func (s *Store) Close(ctx context.Context) error {
	var firstErr error
	if s.mongo != nil {
		if err := s.mongo.Close(ctx); err != nil {
			firstErr = err
		}
	}
	if s.database != nil {
		if err := s.database.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
