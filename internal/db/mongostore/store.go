// Package mongostore reads holders from a MongoDB collection shaped like
// {apaarID, name, certificates: [{certificateId, title, fileUrl}]}.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adamscao/certstamp/internal/models"
)

// Store is a holder store backed by one collection
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
}

// Connect dials uri and pings the server
func Connect(ctx context.Context, uri, database, collection string, timeout time.Duration) (*Store, error) {
	opts := options.Client().ApplyURI(uri).SetConnectTimeout(timeout).SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &Store{
		client:     client,
		collection: client.Database(database).Collection(collection),
		timeout:    timeout,
	}, nil
}

// Close disconnects the client
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// EnsureIndexes creates the unique apaarID index. It fails on collections
// that already hold duplicate holders.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "apaarID", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("apaarID_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create apaarID index: %w", err)
	}
	return nil
}

// FindHolder looks a holder up by apaarID.
// Returns models.ErrNotFound when no document matches.
func (s *Store) FindHolder(ctx context.Context, holderID string) (*models.Holder, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var holder models.Holder
	err := s.collection.FindOne(ctx, bson.M{"apaarID": holderID}).Decode(&holder)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("holder %s: %w", holderID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find holder: %w", err)
	}

	if holder.Certificates == nil {
		holder.Certificates = []models.CertificateEntry{}
	}

	return &holder, nil
}

// Create inserts a holder document
func (s *Store) Create(ctx context.Context, holder *models.Holder) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.collection.CountDocuments(ctx, bson.M{"apaarID": holder.HolderID})
	if err != nil {
		return fmt.Errorf("failed to check holder: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("holder %s: %w", holder.HolderID, models.ErrAlreadyExists)
	}

	if holder.Certificates == nil {
		holder.Certificates = []models.CertificateEntry{}
	}
	if _, err := s.collection.InsertOne(ctx, holder); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("holder %s: %w", holder.HolderID, models.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create holder: %w", err)
	}

	holder.CreatedAt = time.Now()
	return nil
}

// AddCertificate appends a certificate to a holder's list
func (s *Store) AddCertificate(ctx context.Context, holderID string, cert models.CertificateEntry) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	filter := bson.M{"apaarID": holderID, "certificates.certificateId": bson.M{"$ne": cert.CertificateID}}
	update := bson.M{"$push": bson.M{"certificates": cert}}

	res, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to add certificate: %w", err)
	}
	if res.MatchedCount == 0 {
		// either the holder is missing or the certificate already exists
		if _, err := s.FindHolder(ctx, holderID); err != nil {
			return err
		}
		return fmt.Errorf("certificate %s of holder %s: %w", cert.CertificateID, holderID, models.ErrAlreadyExists)
	}

	return nil
}

// List returns every holder document ordered by apaarID
func (s *Store) List(ctx context.Context) ([]*models.Holder, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cur, err := s.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "apaarID", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list holders: %w", err)
	}
	defer cur.Close(ctx)

	var holders []*models.Holder
	if err := cur.All(ctx, &holders); err != nil {
		return nil, fmt.Errorf("failed to decode holders: %w", err)
	}

	return holders, nil
}
