package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/brojonat/soltx/service/db"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"
)

func dbGetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Get a transaction by signature",
		ArgsUsage: "<signature>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: transaction signature")
			}

			store, closer, err := getStore(c)
			if err != nil {
				return err
			}
			defer closer()

			txn, err := store.GetTransactionBySignature(c.Context, c.Args().First())
			if err != nil {
				return fmt.Errorf("failed to get transaction: %w", err)
			}
			if txn == nil {
				return fmt.Errorf("transaction not found: %s", c.Args().First())
			}

			view := viewFromStore(txn)
			if c.Bool("json") {
				return outputJSON(c.App.Writer, view)
			}
			printTransactionDetailed(c.App.Writer, view)
			return nil
		},
	}
}

func dbByDateCommand() *cli.Command {
	return &cli.Command{
		Name:      "by-date",
		Usage:     "List the transactions recorded on a day",
		ArgsUsage: "<YYYY-MM-DD>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("requires exactly one argument: date (YYYY-MM-DD)")
			}

			day, err := time.Parse("2006-01-02", c.Args().First())
			if err != nil {
				return fmt.Errorf("invalid date format: %w", err)
			}

			store, closer, err := getStore(c)
			if err != nil {
				return err
			}
			defer closer()

			txns, err := store.ListTransactionsByDate(c.Context, day)
			if err != nil {
				return fmt.Errorf("failed to list transactions: %w", err)
			}

			views := make([]transactionView, len(txns))
			for i, txn := range txns {
				views[i] = viewFromStore(txn)
			}

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

func dbLatestCommand() *cli.Command {
	return &cli.Command{
		Name:  "latest",
		Usage: "List the most recent transactions",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Usage:   "Number of transactions (1-100)",
				Value:   5,
			},
		},
		Action: func(c *cli.Context) error {
			count := c.Int("count")
			if count < 1 || count > 100 {
				return fmt.Errorf("count must be between 1 and 100, got %d", count)
			}

			store, closer, err := getStore(c)
			if err != nil {
				return err
			}
			defer closer()

			txns, err := store.ListLatestTransactions(c.Context, int32(count))
			if err != nil {
				return fmt.Errorf("failed to list latest transactions: %w", err)
			}

			views := make([]latestView, len(txns))
			for i, txn := range txns {
				views[i] = latestView{Timestamp: txn.Timestamp, Signature: txn.Signature, Slot: txn.Slot}
			}

			if c.Bool("json") {
				return outputJSON(c.App.Writer, views)
			}
			printLatestTable(c.App.Writer, views)
			return nil
		},
	}
}

// getStore connects to the database named by the global flag or DATABASE_URL.
func getStore(c *cli.Context) (*db.Store, func(), error) {
	dbURL := c.String("database-url")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		return nil, nil, fmt.Errorf("database-url is required (set DATABASE_URL env var or use --database-url)")
	}

	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := db.NewStore(pool)
	closer := func() { pool.Close() }

	return store, closer, nil
}
