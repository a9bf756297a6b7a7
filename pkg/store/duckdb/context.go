package duckdb

import (
	"context"
	"database/sql"
)

type txKey struct{}

// WithTransaction lets several stores write inside one caller-owned transaction
func WithTransaction(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTransaction returns the caller-owned transaction, or nil
func GetTransaction(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}
