package storage

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoEntry struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// MongoStorage implements Storage using a Mongo collection, one document per key.
type MongoStorage struct {
	client *mongo.Client
	col    *mongo.Collection
	prefix string
}

func NewMongoStorage(client *mongo.Client, col *mongo.Collection, prefix string) *MongoStorage {
	return &MongoStorage{client: client, col: col, prefix: prefix}
}

func (m *MongoStorage) Get(ctx context.Context, key string) ([]byte, error) {
	var e mongoEntry
	if err := m.col.FindOne(ctx, bson.M{"_id": m.prefix + key}).Decode(&e); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e.Value, nil
}

func (m *MongoStorage) Set(ctx context.Context, key string, value []byte) error {
	e := mongoEntry{Key: m.prefix + key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := m.col.ReplaceOne(ctx, bson.M{"_id": e.Key}, e, options.Replace().SetUpsert(true))
	return err
}

func (m *MongoStorage) Delete(ctx context.Context, key string) error {
	_, err := m.col.DeleteOne(ctx, bson.M{"_id": m.prefix + key})
	return err
}

func (m *MongoStorage) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	return m.client.Disconnect(ctx)
}
