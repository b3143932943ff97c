// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yitzshapiro/synthetic-data-generator/internal/ledger"
	"github.com/yitzshapiro/synthetic-data-generator/pkg/types"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the processed-documents ledger",
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents recorded as processed",
	Long: `List prints the ID of every document recorded in the ledger under
--output_path, one per line, sorted. These documents are skipped by qa and
dpo unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: runLedgerList,
}

func init() {
	ledgerCmd.AddCommand(ledgerListCmd)
	rootCmd.AddCommand(ledgerCmd)
}

func runLedgerList(cmd *cobra.Command, args []string) error {
	if err := bindFlags(cmd); err != nil {
		return err
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	backend := types.LedgerBackend(viper.GetString("ledger"))
	store, err := ledger.OpenStore(backend, viper.GetString("output_path"), log)
	if err != nil {
		return &SetupError{Err: err}
	}

	l := ledger.Open(cmd.Context(), store, false, log)
	defer closeQuietly(l, "ledger")

	entries := l.Entries()
	for _, id := range entries {
		fmt.Fprintln(cmd.OutOrStdout(), id)
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "ledger is empty")
	}
	return nil
}
