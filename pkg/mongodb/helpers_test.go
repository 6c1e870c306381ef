package mongodb

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/x/mongo/driver"
)

func TestIsTransientTransactionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
		{
			name: "labelled",
			err:  mongo.CommandError{Code: 251, Labels: []string{driver.TransientTransactionError}},
			want: true,
		},
		{
			name: "wrapped write conflict",
			err:  fmt.Errorf("update batch: %w", mongo.CommandError{Code: writeConflictCode}),
			want: true,
		},
		{
			name: "write exception",
			err:  mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: writeConflictCode}}},
			want: true,
		},
		{
			name: "duplicate key",
			err:  mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransientTransactionError(tt.err))
		})
	}
}

func TestHasErrorLabelUnknownCommitResult(t *testing.T) {
	err := fmt.Errorf("commit: %w", mongo.CommandError{Labels: []string{driver.UnknownTransactionCommitResult}})
	assert.True(t, hasErrorLabel(err, driver.UnknownTransactionCommitResult))
	assert.False(t, hasErrorLabel(err, driver.TransientTransactionError))
	assert.False(t, hasErrorLabel(errors.New("boom"), driver.UnknownTransactionCommitResult))
}
