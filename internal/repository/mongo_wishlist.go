package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/emberleaf/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoWishlistRepository struct {
	collection *mongo.Collection
}

var _ WishlistRepository = (*MongoWishlistRepository)(nil)

func NewMongoWishlistRepository(db *mongo.Database) *MongoWishlistRepository {
	return &MongoWishlistRepository{collection: db.Collection("wishlists")}
}

func (m *MongoWishlistRepository) Load(ctx context.Context, sessionID string) (*domain.Wishlist, error) {
	var list domain.Wishlist
	err := m.collection.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&list)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrWishlistNotFound
		}
		return nil, fmt.Errorf("failed to load wishlist: %w", err)
	}
	return &list, nil
}

func (m *MongoWishlistRepository) Save(ctx context.Context, list *domain.Wishlist) error {
	filter := bson.M{"session_id": list.SessionID}
	update := bson.M{"$set": list}
	opts := options.Update().SetUpsert(true)

	if _, err := m.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save wishlist: %w", err)
	}
	return nil
}

func (m *MongoWishlistRepository) CreateIndexes(ctx context.Context) error {
	// No TTL index here: wishlists deliberately never expire, unlike carts.
	index := mongo.IndexModel{
		Keys:    bson.D{{Key: "session_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := m.collection.Indexes().CreateOne(ctx, index); err != nil {
		return fmt.Errorf("failed to create wishlist index: %w", err)
	}
	return nil
}
