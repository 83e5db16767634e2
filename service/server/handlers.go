package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/brojonat/soltx/service/db"
)

const (
	dateLayout         = "2006-01-02"
	defaultLatestCount = 5
	maxLatestCount     = 100
)

// handleGetTransactionBySignature returns a handler that looks up one transaction.
// GET /transactions/by-id/{signature}
// An unknown signature is a 200 with a null body, not a 404.
func handleGetTransactionBySignature(store TransactionStore, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		signature := r.PathValue("signature")

		txn, err := store.GetTransactionBySignature(r.Context(), signature)
		if err != nil {
			logger.Error("failed to get transaction", "signature", signature, "error", err)
			writeError(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if txn == nil {
			logger.Debug("transaction not found", "signature", signature)
			writeJSON(w, nil, http.StatusOK)
			return
		}

		writeJSON(w, transactionToResponse(txn), http.StatusOK)
	})
}

// handleGetTransactionsByDate returns a handler that lists the transactions
// recorded on one calendar day.
// GET /transactions/by-date/{date}
func handleGetTransactionsByDate(store TransactionStore, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dateStr := r.PathValue("date")
		logger.Info("received request for transactions by date", "date", dateStr)

		date, err := parseDate(dateStr)
		if err != nil {
			logger.Debug("invalid date", "date", dateStr, "error", err)
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		transactions, err := store.ListTransactionsByDate(r.Context(), date)
		if err != nil {
			logger.Error("failed to list transactions by date", "date", dateStr, "error", err)
			writeError(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if len(transactions) == 0 {
			writeError(w, fmt.Sprintf("no transactions found for date: %s", date.Format(dateLayout)), http.StatusNotFound)
			return
		}

		logger.Info("found transactions for date", "date", date.Format(dateLayout), "count", len(transactions))

		resp := make([]transactionResponse, len(transactions))
		for i, txn := range transactions {
			resp[i] = transactionToResponse(txn)
		}
		writeJSON(w, resp, http.StatusOK)
	})
}

// handleGetLatestTransactions returns a handler that lists the most recent
// transactions, newest first.
// GET /transactions/latest?count=N
func handleGetLatestTransactions(store TransactionStore, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count, err := parseLatestCount(r.URL.Query())
		if err != nil {
			logger.Debug("invalid count", "count", r.URL.Query().Get("count"), "error", err)
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}

		transactions, err := store.ListLatestTransactions(r.Context(), int32(count))
		if err != nil {
			logger.Error("failed to list latest transactions", "count", count, "error", err)
			writeError(w, err.Error(), http.StatusInternalServerError)
			return
		}

		logger.Debug("latest transactions listed", "count", count, "returned", len(transactions))

		resp := make([]latestTransactionResponse, len(transactions))
		for i, txn := range transactions {
			resp[i] = latestTransactionResponse{
				Timestamp: txn.Timestamp,
				Signature: txn.Signature,
				Slot:      txn.Slot,
			}
		}
		writeJSON(w, resp, http.StatusOK)
	})
}

// handleReady returns a handler that reports whether a pooled connection can be used.
// GET /ready
func handleReady(store TransactionStore, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			logger.Warn("readiness check failed", "error", err)
			writeError(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
}

// transactionResponse is the JSON response format for a transaction.
type transactionResponse struct {
	Signature       string          `json:"signature"`
	Timestamp       time.Time       `json:"timestamp"`
	Slot            int64           `json:"slot"`
	Fee             json.Number     `json:"fee"`
	FeePayer        string          `json:"fee_payer"`
	TransactionType string          `json:"transaction_type"`
	Transaction     json.RawMessage `json:"transaction"`
}

// latestTransactionResponse is the narrow projection returned by the latest listing.
type latestTransactionResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Signature string    `json:"signature"`
	Slot      int64     `json:"slot"`
}

// transactionToResponse converts a domain Transaction to a response format.
func transactionToResponse(t *db.Transaction) transactionResponse {
	payload := t.Transaction
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	}
	return transactionResponse{
		Signature:       t.Signature,
		Timestamp:       t.Timestamp,
		Slot:            t.Slot,
		Fee:             json.Number(t.Fee.String()),
		FeePayer:        t.FeePayer,
		TransactionType: t.TransactionType,
		Transaction:     payload,
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// parseDate parses a YYYY-MM-DD path value.
func parseDate(value string) (time.Time, error) {
	date, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, errorf("invalid date format: %v", err)
	}
	return date, nil
}

// parseLatestCount applies the count policy: absent means the default, values
// above the maximum are clamped, and anything that is not a positive integer is rejected.
func parseLatestCount(query map[string][]string) (int, error) {
	values, ok := query["count"]
	if !ok || len(values) == 0 || values[0] == "" {
		return defaultLatestCount, nil
	}

	count, err := strconv.Atoi(values[0])
	if err != nil {
		return 0, errorf("invalid count parameter: must be an integer")
	}
	if count < 1 {
		return 0, errorf("count must be at least 1")
	}
	if count > maxLatestCount {
		count = maxLatestCount
	}
	return count, nil
}

// errorf is a helper to format error strings.
func errorf(format string, args ...interface{}) error {
	return &validationError{msg: strings.TrimSpace(fmt.Sprintf(format, args...))}
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string {
	return e.msg
}
