package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.mongodb.org/mongo-driver/x/mongo/driver"
)

// ErrTransactionConflict is returned when the server aborted the transaction
// because a concurrent transaction touched the same documents. The work was
// not applied; callers decide whether to run it again.
var ErrTransactionConflict = errors.New("transaction write conflict")

const maxCommitAttempts = 3

// RunTransaction runs fn inside a snapshot transaction and commits it. Unlike
// mongo.Session.WithTransaction the callback is executed exactly once: a
// transient error aborts and surfaces as ErrTransactionConflict. Only the
// commit itself is retried when its outcome is unknown, which is safe because
// the server deduplicates commits of the same transaction.
func (c *Client) RunTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error {
	session, err := c.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(context.Background())

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	return mongo.WithSession(ctx, session, func(sessCtx mongo.SessionContext) error {
		if err := session.StartTransaction(txnOpts); err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if err := fn(sessCtx); err != nil {
			_ = session.AbortTransaction(context.Background())
			if IsTransientTransactionError(err) {
				return fmt.Errorf("%w: %v", ErrTransactionConflict, err)
			}
			return err
		}

		var commitErr error
		for attempt := 0; attempt < maxCommitAttempts; attempt++ {
			commitErr = session.CommitTransaction(sessCtx)
			if commitErr == nil {
				return nil
			}
			if !hasErrorLabel(commitErr, driver.UnknownTransactionCommitResult) {
				break
			}
		}

		if IsTransientTransactionError(commitErr) {
			return fmt.Errorf("%w: %v", ErrTransactionConflict, commitErr)
		}
		return fmt.Errorf("failed to commit transaction: %w", commitErr)
	})
}
