package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"gastos/internal/backup"
	"gastos/internal/cli"
	"gastos/internal/dashboard"
	applog "gastos/internal/log"
)

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot of all data",
		Long:  `Write every collection as a JSON snapshot to --out, or to stdout when --out is "-" or empty.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			rt, err := cli.InitRuntime(ctx, logger.Logger, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			snap, err := rt.Ledger.ExportSnapshot(ctx)
			if err != nil {
				return err
			}
			data, err := backup.Encode(snap)
			if err != nil {
				return fmt.Errorf("encode snapshot: %w", err)
			}

			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			total := dashboard.Total(*snap.Expenses).Format(rt.Ledger.Currency())
			logger.Info("Snapshot written",
				applog.FieldOperation, applog.OpExport,
				"file", out,
				"categories", len(*snap.Categories),
				"expenses", len(*snap.Expenses),
				"expenses_total", total,
				"monthly_budgets", len(*snap.MonthlyBudgets))
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d expenses totalling %s to %s (suggested name %s)\n",
				len(*snap.Expenses), total, out, backup.Filename(snap.ExportedAt))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	return cmd
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all data with a snapshot",
		Long: `Replace every category, expense and monthly budget with the content of a
snapshot file. Use "-" to read from stdin. A malformed file changes nothing; a
failed replace is rolled back.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			rt, err := cli.InitRuntime(ctx, logger.Logger, cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.Ledger.ImportSnapshot(ctx, data); err != nil {
				return err
			}
			ds, err := rt.Ledger.ExportSnapshot(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d categories, %d expenses totalling %s, %d monthly budgets\n",
				len(*ds.Categories), len(*ds.Expenses),
				dashboard.Total(*ds.Expenses).Format(rt.Ledger.Currency()),
				len(*ds.MonthlyBudgets))
			return nil
		},
	}
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}
