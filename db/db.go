package db

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	UserCollection             *mongo.Collection
	ServicesCollection         *mongo.Collection
	BookingsCollection         *mongo.Collection
	PaymentsCollection         *mongo.Collection
	CompletedServiceCollection *mongo.Collection
	Client                     *mongo.Client
)

// Init connects to MongoDB and binds the collection handles.
// Must be called before serving; store unavailability here is fatal.
func Init(ctx context.Context, uri, dbName string) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return err
	}
	Client = client

	database := client.Database(dbName)
	UserCollection = database.Collection("users")
	ServicesCollection = database.Collection("services")
	BookingsCollection = database.Collection("bookings")
	PaymentsCollection = database.Collection("payments")
	CompletedServiceCollection = database.Collection("completedServices")

	return EnsureIndexes(ctx)
}

// EnsureIndexes creates the indexes the write paths rely on. The unique
// index on payments.transactionId is the settlement idempotency anchor;
// a read-then-write check alone would race under concurrent reconciles.
func EnsureIndexes(ctx context.Context) error {
	if _, err := UserCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"email": 1},
		Options: options.Index().SetUnique(true).SetName("unique_email"),
	}); err != nil {
		return err
	}
	if _, err := PaymentsCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"transactionId": 1},
		Options: options.Index().SetUnique(true).SetName("unique_transaction_id"),
	}); err != nil {
		return err
	}
	_, err := BookingsCollection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"customerEmail": 1}},
		{Keys: bson.M{"decoratorEmail": 1}},
		{Keys: bson.M{"paymentStatus": 1}},
	})
	return err
}

func Close(ctx context.Context) error {
	if Client == nil {
		return nil
	}
	return Client.Disconnect(ctx)
}

// IsDuplicateKeyError reports whether a Mongo write failed on a unique index.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if we, ok := err.(mongo.WriteException); ok {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return mongo.IsDuplicateKeyError(err)
}
