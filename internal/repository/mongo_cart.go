package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/emberleaf/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCartRepository stores one document per session in the carts
// collection.
type MongoCartRepository struct {
	collection *mongo.Collection
}

var _ CartRepository = (*MongoCartRepository)(nil)

func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{collection: db.Collection("carts")}
}

func (m *MongoCartRepository) Load(ctx context.Context, sessionID string) (*domain.CartState, error) {
	filter := bson.M{"session_id": sessionID}

	raw, err := m.collection.FindOne(ctx, filter).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var state domain.CartState
	if err := bson.Unmarshal(raw, &state); err != nil {
		// A corrupt record is worth less than no record. Clear it and
		// report absent rather than failing every load.
		log.Printf("[cart-repo] clearing undecodable cart for session %s: %v", sessionID, err)
		if _, delErr := m.collection.DeleteOne(ctx, filter); delErr != nil {
			log.Printf("[cart-repo] clearing corrupt cart: %v", delErr)
		}
		return nil, ErrCartNotFound
	}

	if state.Expired(time.Now()) {
		if _, err := m.collection.DeleteOne(ctx, filter); err != nil {
			log.Printf("[cart-repo] clearing expired cart: %v", err)
		}
		return nil, ErrCartNotFound
	}

	return &state, nil
}

func (m *MongoCartRepository) Save(ctx context.Context, state *domain.CartState) error {
	state.LastUpdated = time.Now()

	filter := bson.M{"session_id": state.SessionID}
	update := bson.M{"$set": state}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (m *MongoCartRepository) Clear(ctx context.Context, sessionID string) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"session_id": sessionID}); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// DeleteExpired prunes carts whose last mutation is before the cutoff. The
// TTL index does the same eventually; the sweeper keeps the window tight.
func (m *MongoCartRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := m.collection.DeleteMany(ctx, bson.M{"last_updated": bson.M{"$lt": before}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired carts: %w", err)
	}
	return result.DeletedCount, nil
}

func (m *MongoCartRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "last_updated", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(domain.CartRetention / time.Second)),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create cart indexes: %w", err)
	}
	return nil
}
