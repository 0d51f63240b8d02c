package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"labfit/adapters/excel"
	"labfit/app"
	"labfit/domain/fit"
	"labfit/domain/table"
	"labfit/internal/config"
	"labfit/internal/container"
	"labfit/internal/testkit"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "labfit",
		Short:         "Curve fitting for tab-separated lab measurements",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newLoadCmd(),
		newFitCmd(),
		newRunCmd(),
		newDemoCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newContainer() (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return container.New(cfg)
}

func newLoadCmd() *cobra.Command {
	var (
		columns int
		xlsxOut string
		summary bool
	)

	cmd := &cobra.Command{
		Use:   "load FILE",
		Short: "Load a table and print it row by row",
		Long: `Load the first N tab-separated fields of every line of FILE.
Spreadsheets (.xlsx, optionally FILE.xlsx#Sheet) are read from their cells.

Example: labfit load Eichkurve.txt --columns 4 --summary`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newContainer()
			if err != nil {
				return err
			}
			tbl, err := c.Tables.ReadTable(cmd.Context(), args[0], columns)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i := 0; i < tbl.Len(); i++ {
				fmt.Fprintln(out, strings.Join(tbl.Row(i), "\t"))
			}
			if summary {
				if err := printSummary(out, tbl, c.Config.Report.Digits); err != nil {
					return err
				}
			}
			if xlsxOut != "" {
				if err := excel.WriteTable(xlsxOut, "", tbl); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", xlsxOut)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&columns, "columns", 2, "Number of leading fields to keep per line")
	cmd.Flags().StringVar(&xlsxOut, "xlsx", "", "Also write the table to this workbook")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print per-column statistics")

	return cmd
}

func newFitCmd() *cobra.Command {
	var (
		columns    int
		xCol, yCol int
		family     string
		model      string
		expr       string
		params     []string
		xlsxOut    string
	)

	cmd := &cobra.Command{
		Use:   "fit FILE",
		Short: "Fit one model to two columns of a table",
		Long: `Fit a linear family, a catalog model or a formula to columns x and y.

Examples:
  labfit fit Eichkurve.txt --columns 4 --y 1 --family proportional
  labfit fit GGW.txt --columns 5 --model binding
  labfit fit Dialysezeit.txt --columns 4 --expr "a*(1-exp(-k*x))" --param a=max(y) --param k=0.03`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := app.ParseParams(params)
			if err != nil {
				return err
			}
			spec, err := app.BuildSpec(family, model, expr, parsed)
			if err != nil {
				return err
			}

			c, err := newContainer()
			if err != nil {
				return err
			}
			tbl, err := c.Tables.ReadTable(cmd.Context(), args[0], columns)
			if err != nil {
				return err
			}
			res, err := c.Fits.FitTable(cmd.Context(), tbl, xCol, yCol, spec)
			if err != nil {
				return err
			}

			digits := c.Config.Report.Digits
			fmt.Fprintln(cmd.OutOrStdout(), res.Report(digits))
			if xlsxOut != "" {
				sheets := []excel.ResultSheet{{Dataset: args[0], Title: res.Formula, Result: res}}
				return excel.ExportResults(xlsxOut, sheets, digits)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&columns, "columns", 2, "Number of leading fields to keep per line")
	cmd.Flags().IntVar(&xCol, "x", 0, "Column holding the independent variable")
	cmd.Flags().IntVar(&yCol, "y", 1, "Column holding the dependent variable")
	cmd.Flags().StringVar(&family, "family", "", "linear, proportional, quadratic, quadratic_zero_intercept or nonlinear")
	cmd.Flags().StringVar(&model, "model", "", "Catalog model name ("+strings.Join(fit.ModelNames(), ", ")+")")
	cmd.Flags().StringVar(&expr, "expr", "", "Model formula in x and the parameters")
	cmd.Flags().StringArrayVar(&params, "param", nil, "Parameter start value as name=start; repeatable")
	cmd.Flags().StringVar(&xlsxOut, "xlsx", "", "Export the result to this workbook")

	return cmd
}

func newRunCmd() *cobra.Command {
	var (
		xlsxOut string
		store   bool
	)

	cmd := &cobra.Command{
		Use:   "run PLAN",
		Short: "Run every fit of a YAML plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := app.LoadPlan(args[0])
			if err != nil {
				return err
			}
			c, err := newContainer()
			if err != nil {
				return err
			}
			defer c.Shutdown(context.Background())

			if store {
				if err := c.InitWithDatabase(cmd.Context()); err != nil {
					return err
				}
			}

			outcomes, err := c.Batch.Run(cmd.Context(), plan)
			if err != nil {
				return err
			}
			return finish(cmd, c, outcomes, xlsxOut, store)
		},
	}

	cmd.Flags().StringVar(&xlsxOut, "xlsx", "", "Export all results to this workbook")
	cmd.Flags().BoolVar(&store, "store", false, "Save the results in the result store (needs DATABASE_URL)")

	return cmd
}

func newDemoCmd() *cobra.Command {
	genConfig := testkit.DefaultLabConfig()
	var xlsxOut string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Fit the built-in synthetic calibration, dialysis and binding data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newContainer()
			if err != nil {
				return err
			}

			kit := testkit.NewTestKit(genConfig)
			plan, err := kit.DemoPlan()
			if err != nil {
				return err
			}

			batch := app.NewBatchService(kit.Tables(), c.Fits, c.Config.Batch.Workers, c.Logger)
			outcomes, err := batch.Run(cmd.Context(), plan)
			if err != nil {
				return err
			}
			return finish(cmd, c, outcomes, xlsxOut, false)
		},
	}

	cmd.Flags().Int64Var(&genConfig.Seed, "seed", genConfig.Seed, "Random seed for the measurement noise")
	cmd.Flags().Float64Var(&genConfig.Noise, "noise", genConfig.Noise, "Relative measurement noise")
	cmd.Flags().IntVar(&genConfig.Points, "points", genConfig.Points, "Measurements per dataset")
	cmd.Flags().StringVar(&xlsxOut, "xlsx", "", "Export all results to this workbook")

	return cmd
}

// finish prints the outcomes, exports and stores them, and fails when any
// fit failed.
func finish(cmd *cobra.Command, c *container.Container, outcomes []app.Outcome, xlsxOut string, store bool) error {
	digits := c.Config.Report.Digits
	failed := printOutcomes(cmd.OutOrStdout(), outcomes, digits)

	if xlsxOut != "" {
		sheets := make([]excel.ResultSheet, len(outcomes))
		for i, o := range outcomes {
			sheets[i] = excel.ResultSheet{Dataset: o.Dataset, Title: o.Title, Result: o.Result, Err: o.Err}
		}
		if err := excel.ExportResults(xlsxOut, sheets, digits); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", xlsxOut)
	}

	if store {
		runID, err := c.Batch.Save(cmd.Context(), outcomes)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "stored run %s\n", runID)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d fits failed", failed, len(outcomes))
	}
	return nil
}

// printOutcomes writes one section per fit: the title, the report and a
// blank line. It returns the number of failed fits.
func printOutcomes(w io.Writer, outcomes []app.Outcome, digits int) int {
	failed := 0
	for _, o := range outcomes {
		fmt.Fprintln(w, o.Title)
		if o.Err != nil {
			failed++
			fmt.Fprintf(w, "fit failed: %v\n\n", o.Err)
			continue
		}
		fmt.Fprintln(w, o.Result.Report(digits))
		fmt.Fprintln(w)
	}
	return failed
}

func printSummary(w io.Writer, tbl *table.Table, digits int) error {
	summary, err := tbl.Summarize()
	if err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "column\tn\tmin\tmax\tmean\tmedian\tsd")
	for _, s := range summary {
		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\t%s\n", s.Column, s.Count,
			fit.FormatValue(s.Min, digits), fit.FormatValue(s.Max, digits),
			fit.FormatValue(s.Mean, digits), fit.FormatValue(s.Median, digits),
			fit.FormatValue(s.StdDev, digits))
	}
	return nil
}
