package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"gprspc/app"
	"gprspc/domain/core"
	"gprspc/domain/spc"
	"gprspc/internal/config"
	"gprspc/internal/container"
	"gprspc/internal/controlchart"
	"gprspc/internal/session"
	"gprspc/internal/testkit"
)

type globalOptions struct {
	file       string
	sheet      string
	method     string
	confidence string
	synthetic  bool
	seed       int64
}

func main() {
	_ = godotenv.Load()

	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:   "gprspc-cli",
		Short: "Control limits and outlier elimination for patient-specific QA gamma passing rates",
	}
	rootCmd.PersistentFlags().StringVar(&opts.file, "file", "", "QA export (.xlsx or .csv), default $DATA_FILE")
	rootCmd.PersistentFlags().StringVar(&opts.sheet, "sheet", "", "Worksheet holding the data, default $DATA_SHEET or \"data\"")
	rootCmd.PersistentFlags().StringVar(&opts.method, "method", "", "Limit method: shewhart, wsd, sc or swv")
	rootCmd.PersistentFlags().StringVar(&opts.confidence, "confidence", "", "Confidence level, e.g. 99.73% or 0.95")
	rootCmd.PersistentFlags().BoolVar(&opts.synthetic, "synthetic", false, "Use generated QA data instead of a file")
	rootCmd.PersistentFlags().Int64Var(&opts.seed, "seed", 42, "Seed for --synthetic data")

	rootCmd.AddCommand(
		newSummaryCmd(opts),
		newStatsCmd(opts),
		newNormalityCmd(opts),
		newLimitsCmd(opts),
		newEliminateCmd(opts),
		newAutoCmd(opts),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openSession builds the service from the environment and opens one session
func openSession(ctx context.Context, opts *globalOptions) (*app.SPCService, core.ID, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", err
	}
	if opts.method != "" {
		cfg.SPC.Method = opts.method
	}
	if opts.confidence != "" {
		cfg.SPC.Confidence = opts.confidence
	}

	c, err := container.New(cfg)
	if err != nil {
		return nil, "", err
	}
	svc := c.Build()

	var info *app.SessionInfo
	if opts.synthetic {
		gen := testkit.DefaultGPRConfig()
		gen.Seed = opts.seed
		info, err = svc.Open(ctx, testkit.NewStaticSource(testkit.NewGPRGenerator(gen).Generate()))
	} else {
		file := opts.file
		if file == "" {
			file = cfg.Data.File
		}
		info, err = svc.OpenFile(ctx, file, opts.sheet)
	}
	if err != nil {
		return nil, "", err
	}
	for _, w := range info.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	return svc, info.ID, nil
}

func parseSelection(opts *globalOptions) (spc.Method, spc.ConfidenceLevel, error) {
	var method spc.Method
	var level spc.ConfidenceLevel
	var err error
	if opts.method != "" {
		if method, err = spc.ParseMethod(opts.method); err != nil {
			return "", "", err
		}
	}
	if opts.confidence != "" {
		if level, err = controlchart.ParseConfidenceLevel(opts.confidence); err != nil {
			return "", "", err
		}
	}
	return method, level, nil
}

func newSummaryCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Describe the loaded QA export",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, id, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			summary, err := svc.Summary(id)
			if err != nil {
				return err
			}

			fmt.Printf("Rows: %d\n", summary.Rows)
			fmt.Printf("Criteria: %s\n", strings.Join(summary.Criteria, ", "))
			fmt.Printf("Sites: %s\n", strings.Join(summary.Sites, ", "))
			if summary.FirstDate != nil && summary.LastDate != nil {
				fmt.Printf("QA dates: %s to %s\n", summary.FirstDate.Format("2006-01-02"), summary.LastDate.Format("2006-01-02"))
			}
			if summary.GammaTarget != nil {
				fmt.Printf("Gamma target: %.4f\n", *summary.GammaTarget)
			}
			return nil
		},
	}
}

func newStatsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [columns...]",
		Short: "Print descriptive statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, id, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			stats, err := svc.Statistics(id, args)
			if err != nil {
				return err
			}

			fmt.Printf("%-28s %6s %8s %8s %8s %8s %8s %8s %8s\n", "Column", "Count", "Mean", "Std", "Min", "25%", "50%", "75%", "Max")
			for _, s := range stats {
				std := "-"
				if s.Std != nil {
					std = fmt.Sprintf("%.2f", *s.Std)
				}
				fmt.Printf("%-28s %6d %8.2f %8s %8.2f %8.2f %8.2f %8.2f %8.2f\n",
					s.Column, s.Count, s.Mean, std, s.Min, s.Q25, s.Median, s.Q75, s.Max)
			}
			return nil
		},
	}
}

func newNormalityCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "normality [columns...]",
		Short: "Run the Anderson-Darling normality test",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, id, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			results, err := svc.Normality(id, args)
			if err != nil {
				return err
			}
			for _, r := range results {
				fmt.Printf("%-28s A2=%.4f critical=%.4f  %s\n", r.Column, r.Statistic, r.CriticalValue, r.Verdict)
			}
			return nil
		},
	}
}

func newLimitsCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "limits [columns...]",
		Short: "Compute control limits and list out-of-control plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			method, level, err := parseSelection(opts)
			if err != nil {
				return err
			}
			svc, id, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			results, err := svc.ComputeLimits(cmd.Context(), id, session.ComputeRequest{
				Method:     method,
				Columns:    args,
				Confidence: level,
			})
			if err != nil {
				return err
			}
			printResults(results)
			return nil
		},
	}
}

func newEliminateCmd(opts *globalOptions) *cobra.Command {
	var criterion string
	var ids []string

	cmd := &cobra.Command{
		Use:   "eliminate",
		Short: "Eliminate plans by ID, recompute, and save the elimination log",
		Long: `Eliminate plans by ID on one criterion and recompute the limits.
Eliminating on Global 3%2mm also removes the plan from every other criterion.

Example: gprspc-cli eliminate --file qa.xlsx --criterion "Global 3%2mm" --ids P007,P012`,
		RunE: func(cmd *cobra.Command, args []string) error {
			method, level, err := parseSelection(opts)
			if err != nil {
				return err
			}
			svc, id, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			outcome, err := svc.Eliminate(cmd.Context(), id, session.EliminationRequest{
				Method:     method,
				Confidence: level,
				Criterion:  criterion,
				IDs:        ids,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Round %d: eliminated %d plan(s), %d value(s)\n", outcome.Round, outcome.Eliminated, len(outcome.Entries))
			printResults(outcome.Results)
			return svc.Reset(cmd.Context(), id)
		},
	}

	cmd.Flags().StringVar(&criterion, "criterion", spc.CascadeCriterion, "Criterion to eliminate on")
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "Comma-separated plan IDs")
	_ = cmd.MarkFlagRequired("ids")
	return cmd
}

func newAutoCmd(opts *globalOptions) *cobra.Command {
	var criterion string
	var maxRounds int

	cmd := &cobra.Command{
		Use:   "auto",
		Short: "Eliminate out-of-control plans round by round until the chart is in control",
		RunE: func(cmd *cobra.Command, args []string) error {
			method, level, err := parseSelection(opts)
			if err != nil {
				return err
			}
			svc, id, err := openSession(cmd.Context(), opts)
			if err != nil {
				return err
			}
			outcomes, err := svc.AutoEliminate(cmd.Context(), id, app.AutoEliminationRequest{
				Method:     method,
				Confidence: level,
				Criterion:  criterion,
				MaxRounds:  maxRounds,
			})
			if err != nil {
				return err
			}
			for _, o := range outcomes {
				fmt.Printf("Round %d: eliminated %d plan(s)\n", o.Round, o.Eliminated)
			}
			if len(outcomes) > 0 {
				printResults(outcomes[len(outcomes)-1].Results)
			} else {
				fmt.Println("No out-of-control plans")
			}
			return svc.Reset(cmd.Context(), id)
		},
	}

	cmd.Flags().StringVar(&criterion, "criterion", spc.CascadeCriterion, "Criterion to eliminate on")
	cmd.Flags().IntVar(&maxRounds, "max-rounds", 10, "Stop after this many rounds")
	return cmd
}

func printResults(results []*spc.ControlChartResult) {
	for _, r := range results {
		fmt.Printf("\n%s [%s, %s]\n", r.Column, r.Method.DisplayName(), r.Confidence)
		fmt.Printf("  CL=%.2f  mean=%.1f  UCL=%.2f  LCL=%.2f", r.CenterLine, r.Mean, r.UCL, r.LCL)
		if r.USL != nil {
			fmt.Printf("  USL=%.2f", *r.USL)
		}
		if r.LSL != nil {
			fmt.Printf("  LSL=%.2f", *r.LSL)
		}
		fmt.Printf("\n  n=%d", r.Count)
		if len(r.OutOfControl) > 0 {
			fmt.Printf("  out of control: %s", strings.Join(r.OutOfControl, ", "))
		}
		fmt.Println()
	}
}
