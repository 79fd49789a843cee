package db

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// WithTransaction runs fn inside a multi-document transaction. Assignment
// and completion mutate bookings and users together; a partial write there
// would leave the ledger and the directory disagreeing.
func WithTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := Client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
