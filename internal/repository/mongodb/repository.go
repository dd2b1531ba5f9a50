package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/swiftcheckout/internal/domain/models"
)

const transactionsCollection = "transactions"

// HistoryRepository stores paid transactions in MongoDB.
type HistoryRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewHistoryRepository connects to MongoDB and verifies the connection.
func NewHistoryRepository(ctx context.Context, uri string, dbName string) (*HistoryRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &HistoryRepository{
		client:     client,
		collection: client.Database(dbName).Collection(transactionsCollection),
	}, nil
}

// AppendRecord inserts a paid transaction.
func (r *HistoryRepository) AppendRecord(ctx context.Context, record models.TransactionRecord) error {
	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", record.ID, err)
	}
	return nil
}

// ListRecords returns every transaction, oldest first.
func (r *HistoryRepository) ListRecords(ctx context.Context) ([]models.TransactionRecord, error) {
	cursor, err := r.collection.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer cursor.Close(ctx)

	records := []models.TransactionRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}
	return records, nil
}

// ClearHistory deletes every stored transaction.
func (r *HistoryRepository) ClearHistory(ctx context.Context) error {
	if _, err := r.collection.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("failed to clear transactions: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *HistoryRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
