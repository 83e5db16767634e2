package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/brojonat/soltx/service/db/dbgen"
	"github.com/brojonat/soltx/service/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const transactionsTable = "sol_transactions"

// Store provides read-only database operations for the service.
// It wraps the generated sqlc Queries with domain conversions.
type Store struct {
	pool    *pgxpool.Pool
	q       *dbgen.Queries
	metrics *metrics.Metrics
}

// NewStore creates a new Store with the given database connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool: pool,
		q:    dbgen.New(pool),
	}
}

// WithMetrics records query durations and row counts on m.
func (s *Store) WithMetrics(m *metrics.Metrics) *Store {
	s.metrics = m
	return s
}

// Transaction represents an ingested Solana transaction.
// This is a domain model that wraps the generated database model.
type Transaction struct {
	Signature       string
	Timestamp       time.Time
	Slot            int64
	Fee             decimal.Decimal
	FeePayer        string
	TransactionType string
	Transaction     json.RawMessage // full transaction body, opaque
}

// LatestTransaction is the narrow projection used by the latest listing.
type LatestTransaction struct {
	Timestamp time.Time
	Signature string
	Slot      int64
}

// Ping verifies a connection can be borrowed from the pool.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// GetTransactionBySignature looks up one transaction by its signature.
// It returns (nil, nil) when no row matches.
func (s *Store) GetTransactionBySignature(ctx context.Context, signature string) (txn *Transaction, err error) {
	defer s.observe("get_by_signature", &err)()

	row, err := s.q.GetTransactionBySignature(ctx, signature)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return dbTransactionToDomain(dbgen.SolTransaction{
		Signature:       row.Signature,
		Timestamp:       row.Timestamp,
		Slot:            row.Slot,
		Fee:             row.Fee,
		FeePayer:        row.FeePayer,
		TransactionType: row.TransactionType,
		Transaction:     row.Transaction,
	})
}

// ListTransactionsByDate retrieves every transaction recorded on the given
// calendar date, ordered by timestamp. Only the date component of date is used.
func (s *Store) ListTransactionsByDate(ctx context.Context, date time.Time) (txns []*Transaction, err error) {
	defer s.observe("list_by_date", &err)()

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	results, err := s.q.ListTransactionsByDate(ctx, pgtype.Date{Time: day, Valid: true})
	if err != nil {
		return nil, err
	}

	transactions := make([]*Transaction, len(results))
	for i, r := range results {
		transactions[i], err = dbTransactionToDomain(dbgen.SolTransaction{
			Signature:       r.Signature,
			Timestamp:       r.Timestamp,
			Slot:            r.Slot,
			Fee:             r.Fee,
			FeePayer:        r.FeePayer,
			TransactionType: r.TransactionType,
			Transaction:     r.Transaction,
		})
		if err != nil {
			return nil, err
		}
	}
	s.recordRows("list_by_date", len(transactions))

	return transactions, nil
}

// ListLatestTransactions retrieves the limit most recent transactions, newest first.
func (s *Store) ListLatestTransactions(ctx context.Context, limit int32) (txns []*LatestTransaction, err error) {
	defer s.observe("list_latest", &err)()

	results, err := s.q.ListLatestTransactions(ctx, limit)
	if err != nil {
		return nil, err
	}

	transactions := make([]*LatestTransaction, len(results))
	for i, r := range results {
		transactions[i] = &LatestTransaction{
			Timestamp: r.Timestamp.Time.UTC(),
			Signature: r.Signature,
			Slot:      r.Slot,
		}
	}
	s.recordRows("list_latest", len(transactions))

	return transactions, nil
}

// observe returns a func that records the query duration and outcome once err is final.
func (s *Store) observe(operation string, err *error) func() {
	return metrics.Timer(time.Now(), func(duration float64) {
		if s.metrics != nil {
			s.metrics.RecordDBQuery(operation, transactionsTable, duration, *err)
		}
	})
}

func (s *Store) recordRows(operation string, n int) {
	if s.metrics != nil {
		s.metrics.RecordRowsReturned(operation, n)
	}
}

// Helper functions to convert between sqlc types and domain types

func dbTransactionToDomain(db dbgen.SolTransaction) (*Transaction, error) {
	fee, err := decimalFromPgNumeric(db.Fee)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", db.Signature, err)
	}

	return &Transaction{
		Signature:       db.Signature,
		Timestamp:       db.Timestamp.Time.UTC(),
		Slot:            db.Slot,
		Fee:             fee,
		FeePayer:        db.FeePayer,
		TransactionType: db.TransactionType,
		Transaction:     json.RawMessage(db.Transaction),
	}, nil
}

func decimalFromPgNumeric(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return decimal.Zero, fmt.Errorf("fee is not a finite number")
	}
	if n.Int == nil {
		return decimal.Zero, nil
	}
	return decimal.NewFromBigInt(n.Int, n.Exp), nil
}
