package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/brojonat/soltx/client"
	"github.com/gagliardetto/solana-go"
	"github.com/itchyny/gojq"
	"github.com/urfave/cli/v2"
)

func jqFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:  "jq",
		Usage: "jq filter over the transaction payload that must evaluate to true (repeatable, all must match)",
	}
}

func clientCommands() *cli.Command {
	return &cli.Command{
		Name:  "client",
		Usage: "Query the service over its HTTP API",
		Subcommands: []*cli.Command{
			clientGetCommand(),
			clientByDateCommand(),
			clientLatestCommand(),
		},
	}
}

func clientGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get a transaction by signature",
		ArgsUsage: "<signature>",
		Flags:     []cli.Flag{jqFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: transaction signature")
			}
			signature := c.Args().First()

			// The server accepts any string; this only flags likely typos.
			if _, err := solana.SignatureFromBase58(signature); err != nil {
				fmt.Fprintf(c.App.ErrWriter, "warning: %q is not a valid base58 signature: %v\n", signature, err)
			}

			filters, err := compileJQFilters(c.StringSlice("jq"))
			if err != nil {
				return err
			}

			txn, err := newClient(c).GetTransaction(c.Context, signature)
			if err != nil {
				return fmt.Errorf("failed to get transaction: %w", err)
			}
			if txn == nil {
				return fmt.Errorf("transaction not found: %s", signature)
			}

			views := filterTransactions([]transactionView{viewFromClient(txn)}, filters)
			if c.Bool("json") {
				if len(views) == 0 {
					return outputJSON(c.App.Writer, nil)
				}
				return outputJSON(c.App.Writer, views[0])
			}
			printTransactions(c.App.Writer, views)
			return nil
		},
	}
}

func clientByDateCommand() *cli.Command {
	return &cli.Command{
		Name:      "by-date",
		Usage:     "List the transactions recorded on a day",
		ArgsUsage: "<YYYY-MM-DD>",
		Flags:     []cli.Flag{jqFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: date (YYYY-MM-DD)")
			}

			day, err := time.Parse("2006-01-02", c.Args().First())
			if err != nil {
				return fmt.Errorf("invalid date format: %w", err)
			}

			filters, err := compileJQFilters(c.StringSlice("jq"))
			if err != nil {
				return err
			}

			txns, err := newClient(c).ListTransactionsByDate(c.Context, day)
			if errors.Is(err, client.ErrNotFound) {
				txns, err = nil, nil
			}
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			views := make([]transactionView, len(txns))
			for i, txn := range txns {
				views[i] = viewFromClient(txn)
			}
			views = filterTransactions(views, filters)

			if c.Bool("json") {
				return outputJSON(c.App.Writer, views)
			}
			if len(views) == 0 {
				fmt.Fprintln(c.App.Writer, "No transactions found")
				return nil
			}
			printTransactions(c.App.Writer, views)
			fmt.Fprintf(c.App.ErrWriter, "\nTotal: %d transactions\n", len(views))
			return nil
		},
	}
}

func clientLatestCommand() *cli.Command {
	return &cli.Command{
		Name:  "latest",
		Usage: "List the most recent transactions",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "Number of transactions (server default when unset)",
			},
		},
		Action: func(c *cli.Context) error {
			txns, err := newClient(c).ListLatestTransactions(c.Context, c.Int("count"))
			if err != nil {
				return fmt.Errorf("failed to list latest transactions: %w", err)
			}

			views := make([]latestView, len(txns))
			for i, txn := range txns {
				views[i] = latestView(*txn)
			}

			if c.Bool("json") {
				return outputJSON(c.App.Writer, views)
			}
			printLatestTable(c.App.Writer, views)
			return nil
		},
	}
}

func newClient(c *cli.Context) *client.Client {
	// Only errors go to stderr.
	logger := slog.New(slog.NewJSONHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	return client.NewClient(c.String("server-url"), nil, logger)
}

func compileJQFilters(filters []string) ([]*gojq.Code, error) {
	compiled := make([]*gojq.Code, len(filters))
	for i, filter := range filters {
		query, err := gojq.Parse(filter)
		if err != nil {
			return nil, fmt.Errorf("failed to parse jq filter %q: %w", filter, err)
		}
		compiled[i], err = gojq.Compile(query)
		if err != nil {
			return nil, fmt.Errorf("failed to compile jq filter %q: %w", filter, err)
		}
	}
	return compiled, nil
}

// filterTransactions keeps the transactions whose payload satisfies every filter.
func filterTransactions(txns []transactionView, filters []*gojq.Code) []transactionView {
	if len(filters) == 0 {
		return txns
	}
	out := make([]transactionView, 0, len(txns))
	for _, txn := range txns {
		if matchesAll(txn.Transaction, filters) {
			out = append(out, txn)
		}
	}
	return out
}

func matchesAll(payload json.RawMessage, filters []*gojq.Code) bool {
	var input interface{}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &input); err != nil {
			return false
		}
	}

	for _, code := range filters {
		v, ok := code.Run(input).Next()
		if !ok {
			return false
		}
		if _, isErr := v.(error); isErr {
			return false
		}
		if !isTruthy(v) {
			return false
		}
	}
	return true
}

// isTruthy checks if a jq result value is truthy.
// In jq, false and null are falsy, everything else is truthy.
func isTruthy(v interface{}) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

