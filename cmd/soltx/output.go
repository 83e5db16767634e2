package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/brojonat/soltx/client"
	"github.com/brojonat/soltx/service/db"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

const separator = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

var lamportsPerSOL = decimal.NewFromInt(int64(solana.LAMPORTS_PER_SOL))

// transactionView is what the CLI prints, whichever source the row came from.
type transactionView struct {
	Signature       string          `json:"signature"`
	Timestamp       time.Time       `json:"timestamp"`
	Slot            int64           `json:"slot"`
	Fee             decimal.Decimal `json:"fee"`
	FeePayer        string          `json:"fee_payer"`
	TransactionType string          `json:"transaction_type"`
	Transaction     json.RawMessage `json:"transaction"`
}

type latestView struct {
	Timestamp time.Time `json:"timestamp"`
	Signature string    `json:"signature"`
	Slot      int64     `json:"slot"`
}

func viewFromStore(t *db.Transaction) transactionView {
	return transactionView{
		Signature:       t.Signature,
		Timestamp:       t.Timestamp,
		Slot:            t.Slot,
		Fee:             t.Fee,
		FeePayer:        t.FeePayer,
		TransactionType: t.TransactionType,
		Transaction:     t.Transaction,
	}
}

func viewFromClient(t *client.Transaction) transactionView {
	return transactionView(*t)
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatFee renders a lamport fee in SOL, keeping the raw value alongside.
func formatFee(fee decimal.Decimal) string {
	return fmt.Sprintf("%s SOL (%s lamports)", fee.Div(lamportsPerSOL).StringFixed(9), fee.String())
}

func printTransactionDetailed(w io.Writer, txn transactionView) {
	fmt.Fprintf(w, "Signature:   %s\n", txn.Signature)
	fmt.Fprintf(w, "Timestamp:   %s\n", txn.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(w, "Slot:        %d\n", txn.Slot)
	fmt.Fprintf(w, "Fee:         %s\n", formatFee(txn.Fee))
	fmt.Fprintf(w, "Fee Payer:   %s\n", txn.FeePayer)
	fmt.Fprintf(w, "Type:        %s\n", txn.TransactionType)
}

func printTransactions(w io.Writer, txns []transactionView) {
	for i, txn := range txns {
		if i > 0 {
			fmt.Fprintln(w, separator)
		}
		printTransactionDetailed(w, txn)
	}
}

func printLatestTable(w io.Writer, txns []latestView) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tSIGNATURE\tSLOT")
	for _, txn := range txns {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", txn.Timestamp.Format(time.RFC3339), txn.Signature, txn.Slot)
	}
	tw.Flush()
}
