package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	txnB = `{"signature": "B", "timestamp": "2024-01-02T09:00:00Z", "slot": 200, "fee": 5000, "fee_payer": "payerB", "transaction_type": "SWAP", "transaction": {"n": 2, "meta": {"err": null}}}`
	txnC = `{"signature": "C", "timestamp": "2024-01-02T23:59:59Z", "slot": 300, "fee": 10000, "fee_payer": "payerC", "transaction_type": "TRANSFER", "transaction": {"n": 3, "meta": {"err": "InsufficientFunds"}}}`
)

// runApp runs the CLI with the given arguments and returns what it wrote.
func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"soltx"}, args...))
	return stdout.String(), stderr.String(), err
}

func jsonServer(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClientGet_PrintsFeeInSOL(t *testing.T) {
	sig := solana.Signature{1, 2, 3}.String()
	server := jsonServer(t, http.StatusOK, txnB, func(r *http.Request) {
		assert.Equal(t, "/transactions/by-id/"+sig, r.URL.Path)
	})

	stdout, stderr, err := runApp(t, "--server-url", server.URL, "client", "get", sig)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Signature:   B")
	assert.Contains(t, stdout, "0.000005000 SOL (5000 lamports)")
	assert.Contains(t, stdout, "SWAP")
	assert.NotContains(t, stderr, "warning")
}

func TestClientGet_WarnsOnInvalidSignature(t *testing.T) {
	var called bool
	server := jsonServer(t, http.StatusOK, txnB, func(r *http.Request) {
		called = true
	})

	_, stderr, err := runApp(t, "--server-url", server.URL, "client", "get", "not-base58-0OIl")
	require.NoError(t, err)
	assert.Contains(t, stderr, "warning")
	assert.True(t, called, "the request is still sent")
}

func TestClientGet_NotFound(t *testing.T) {
	server := jsonServer(t, http.StatusOK, "null", nil)

	_, _, err := runApp(t, "--server-url", server.URL, "client", "get", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transaction not found")
}

func TestClientGet_JSONOutput(t *testing.T) {
	server := jsonServer(t, http.StatusOK, txnC, nil)

	stdout, _, err := runApp(t, "--server-url", server.URL, "--json", "client", "get", "C")
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "C", got["signature"])
	assert.Equal(t, "TRANSFER", got["transaction_type"])
}

func TestClientByDate_JQFilter(t *testing.T) {
	server := jsonServer(t, http.StatusOK, "["+txnB+","+txnC+"]", func(r *http.Request) {
		assert.Equal(t, "/transactions/by-date/2024-01-02", r.URL.Path)
	})

	tests := []struct {
		name    string
		filters []string
		want    []string
	}{
		{"no filter", nil, []string{"B", "C"}},
		{"numeric comparison", []string{".n > 2"}, []string{"C"}},
		{"null is falsy", []string{".meta.err"}, []string{"C"}},
		{"all filters must match", []string{".n >= 2", ".meta.err == null"}, []string{"B"}},
		{"nothing matches", []string{".n > 10"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := []string{"--server-url", server.URL, "--json", "client", "by-date"}
			for _, f := range tt.filters {
				args = append(args, "--jq", f)
			}
			args = append(args, "2024-01-02")

			stdout, _, err := runApp(t, args...)
			require.NoError(t, err)

			var got []transactionView
			require.NoError(t, json.Unmarshal([]byte(stdout), &got))
			sigs := make([]string, len(got))
			for i, txn := range got {
				sigs[i] = txn.Signature
			}
			assert.Equal(t, tt.want, sigs)
		})
	}
}

func TestClientByDate_NotFoundIsEmpty(t *testing.T) {
	server := jsonServer(t, http.StatusNotFound, `{"error":"no transactions found for date: 2024-03-03"}`, nil)

	stdout, _, err := runApp(t, "--server-url", server.URL, "client", "by-date", "2024-03-03")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No transactions found")
}

func TestClientByDate_InvalidInput(t *testing.T) {
	var called bool
	server := jsonServer(t, http.StatusOK, "[]", func(r *http.Request) {
		called = true
	})

	_, _, err := runApp(t, "--server-url", server.URL, "client", "by-date", "01/02/2024")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date format")

	_, _, err = runApp(t, "--server-url", server.URL, "client", "by-date", "--jq", ".n >", "2024-01-02")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse jq filter")

	assert.False(t, called)
}

func TestClientByDate_ServerError(t *testing.T) {
	server := jsonServer(t, http.StatusInternalServerError, `{"error":"pool closed"}`, nil)

	_, _, err := runApp(t, "--server-url", server.URL, "client", "by-date", "2024-01-02")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool closed")
}

func TestClientLatest(t *testing.T) {
	body := `[{"timestamp":"2024-01-02T23:59:59Z","signature":"C","slot":300},{"timestamp":"2024-01-02T09:00:00Z","signature":"B","slot":200}]`

	t.Run("count is forwarded", func(t *testing.T) {
		server := jsonServer(t, http.StatusOK, body, func(r *http.Request) {
			assert.Equal(t, "3", r.URL.Query().Get("count"))
		})

		stdout, _, err := runApp(t, "--server-url", server.URL, "client", "latest", "--count", "3")
		require.NoError(t, err)
		assert.Contains(t, stdout, "TIMESTAMP")
		assert.Contains(t, stdout, "2024-01-02T23:59:59Z")
		assert.Less(t, bytes.Index([]byte(stdout), []byte(" C ")), bytes.Index([]byte(stdout), []byte(" B ")))
	})

	t.Run("unset count uses server default", func(t *testing.T) {
		server := jsonServer(t, http.StatusOK, body, func(r *http.Request) {
			assert.Empty(t, r.URL.RawQuery)
		})

		stdout, _, err := runApp(t, "--server-url", server.URL, "--json", "client", "latest")
		require.NoError(t, err)

		var got []latestView
		require.NoError(t, json.Unmarshal([]byte(stdout), &got))
		require.Len(t, got, 2)
		assert.Equal(t, "C", got[0].Signature)
	})
}

func TestIsTruthy(t *testing.T) {
	assert.False(t, isTruthy(nil))
	assert.False(t, isTruthy(false))
	assert.True(t, isTruthy(true))
	assert.True(t, isTruthy(0))
	assert.True(t, isTruthy(""))
	assert.True(t, isTruthy([]interface{}{}))
	assert.True(t, isTruthy(map[string]interface{}{}))
}

func TestMatchesAll(t *testing.T) {
	filters, err := compileJQFilters([]string{".kind == \"swap\""})
	require.NoError(t, err)

	assert.True(t, matchesAll(json.RawMessage(`{"kind":"swap"}`), filters))
	assert.False(t, matchesAll(json.RawMessage(`{"kind":"transfer"}`), filters))
	assert.False(t, matchesAll(json.RawMessage(`not json`), filters))
	assert.False(t, matchesAll(nil, filters))

	// Runtime errors fail the match instead of aborting.
	filters, err = compileJQFilters([]string{".kind | tonumber"})
	require.NoError(t, err)
	assert.False(t, matchesAll(json.RawMessage(`{"kind":"swap"}`), filters))
}

func TestFormatFee(t *testing.T) {
	tests := []struct {
		fee  decimal.Decimal
		want string
	}{
		{decimal.Zero, "0.000000000 SOL (0 lamports)"},
		{decimal.NewFromInt(5000), "0.000005000 SOL (5000 lamports)"},
		{decimal.NewFromInt(1_500_000_000), "1.500000000 SOL (1500000000 lamports)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatFee(tt.fee))
	}
}
