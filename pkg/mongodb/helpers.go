package mongodb

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver"
)

const writeConflictCode = 112

// Now returns the current time in UTC truncated to the millisecond precision
// BSON dates keep.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// SortAscending creates an ascending sort option
func SortAscending(field string) bson.D {
	return bson.D{{Key: field, Value: 1}}
}

// SortField represents a field to sort by
type SortField struct {
	Field      string
	Descending bool
}

// SortMultiple creates a multi-field sort option
func SortMultiple(fields ...SortField) bson.D {
	sort := bson.D{}
	for _, f := range fields {
		if f.Descending {
			sort = append(sort, bson.E{Key: f.Field, Value: -1})
		} else {
			sort = append(sort, bson.E{Key: f.Field, Value: 1})
		}
	}
	return sort
}

// Pagination represents pagination options
type Pagination struct {
	Page     int64
	PageSize int64
}

// Skip returns the number of documents to skip
func (p Pagination) Skip() int64 {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// FindOptions returns find options with skip, limit and sort applied.
func (p Pagination) FindOptions(sort bson.D) *options.FindOptions {
	return options.Find().
		SetSkip(p.Skip()).
		SetLimit(p.PageSize).
		SetSort(sort)
}

// DateRange adds a {$gte,$lte} condition on field to filter. Nil bounds are
// skipped; the filter is left untouched when both are nil.
func DateRange(filter bson.M, field string, from, to *time.Time) {
	if from == nil && to == nil {
		return
	}
	cond := bson.M{}
	if from != nil {
		cond["$gte"] = *from
	}
	if to != nil {
		cond["$lte"] = *to
	}
	filter[field] = cond
}

// IsNotFound reports whether err is mongo.ErrNoDocuments.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// IsDuplicateKey reports whether err is a duplicate key violation.
func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

// IsTransientTransactionError reports whether the server labelled err as
// transient for the current transaction, which in practice is a write
// conflict with a concurrent transaction.
func IsTransientTransactionError(err error) bool {
	if err == nil {
		return false
	}
	if hasErrorLabel(err, driver.TransientTransactionError) {
		return true
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == writeConflictCode {
		return true
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == writeConflictCode {
				return true
			}
		}
	}
	return false
}

// IsInfrastructureError reports whether err comes from the connection to the
// server rather than from the data. Only these errors count against circuit
// breakers.
func IsInfrastructureError(err error) bool {
	if err == nil {
		return false
	}
	return mongo.IsNetworkError(err) || mongo.IsTimeout(err) || errors.Is(err, mongo.ErrClientDisconnected)
}

func hasErrorLabel(err error, label string) bool {
	var labeled interface{ HasErrorLabel(string) bool }
	if errors.As(err, &labeled) {
		return labeled.HasErrorLabel(label)
	}
	return false
}
