package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ledger-reconciler/internal/config"
	"ledger-reconciler/internal/gateway"
	"ledger-reconciler/internal/usecase"
)

const version = "1.0.0"

var (
	processorFile string
	booksFile     string
	actorID       string
	cfgFile       string
	dbFile        string
)

var rootCmd = &cobra.Command{
	Use:   "reconciler",
	Short: "Reconcile a payment processor ledger against the accounting books",
	Long: `reconciler pairs entries from a payment processor export with entries
from an accounting system export, scores the confidence of each pairing,
and classifies any discrepancy between paired or unpaired entries.`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a reconciliation over two ledger export files",
	RunE:  runReconciliation,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the reconciler version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("reconciler %s\n", version)
	},
}

func init() {
	runCmd.Flags().StringVar(&processorFile, "processor", "", "Path to the payment processor export CSV (required)")
	runCmd.Flags().StringVar(&booksFile, "books", "", "Path to the accounting system export CSV (required)")
	runCmd.Flags().StringVar(&actorID, "actor", "", "Identifier of the user requesting the run (required)")
	runCmd.Flags().StringVar(&cfgFile, "config", "", "Path to a YAML config file with matching parameters")
	runCmd.Flags().StringVar(&dbFile, "db", "", "Optional SQLite file to persist the result into")
	_ = runCmd.MarkFlagRequired("processor")
	_ = runCmd.MarkFlagRequired("books")
	_ = runCmd.MarkFlagRequired("actor")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func runReconciliation(cmd *cobra.Command, args []string) error {
	// Optional .env for RECONCILER_* overrides.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Manual dependency wiring: repository into usecase, store on the
	// way out. Clear and simple at this scale.
	csvRepo := gateway.NewCSVTransactionRepository()
	reconciliationUseCase := usecase.NewReconciliationUseCase(csvRepo, cfg)

	result, err := reconciliationUseCase.Run(context.Background(), processorFile, booksFile, actorID)
	if err != nil {
		return fmt.Errorf("reconciliation failed: %w", err)
	}

	if dbFile != "" {
		store, err := gateway.NewSQLiteResultStore(dbFile)
		if err != nil {
			return err
		}
		defer store.Close()

		runID, err := store.SaveResult(context.Background(), actorID, result)
		if err != nil {
			return err
		}
		log.Printf("saved reconciliation run %d to %s", runID, dbFile)
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to generate JSON report: %w", err)
	}

	fmt.Println(string(output))
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
