package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"abfactory/adapters/casefile"
	"abfactory/adapters/postgres"
	"abfactory/adapters/runindex"
	"abfactory/app"
	"abfactory/internal"
	"abfactory/internal/casegen"
	"abfactory/internal/config"
	"abfactory/internal/engine"
	"abfactory/ports"
	"abfactory/ui"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "abfactory",
		Short: "AB Factory experiment decision engine",
		Long:  "Evaluates A/B experiment cases against an org decision policy and writes auditable run reports.",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newSelfcheckCmd(),
		newGenerateCmd(),
		newValidateCmd(),
		newSummarizeCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// wiring is everything the commands share
type wiring struct {
	cfg    *config.Config
	log    *internal.Logger
	repo   *casefile.Repository
	index  ports.RunIndex
	engine *engine.Engine
}

func buildWiring(policyPath string, quiet bool) (*wiring, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if policyPath == "" {
		policyPath = cfg.Paths.PolicyFile
	}
	pol, err := casefile.LoadPolicy(policyPath)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}
	eng, err := engine.New(pol)
	if err != nil {
		return nil, err
	}

	log := internal.NewDefaultLogger()
	if quiet {
		log = internal.NewLogger(internal.LogLevelError)
	}

	index, err := buildRunIndex(cfg)
	if err != nil {
		return nil, err
	}
	return &wiring{
		cfg:    cfg,
		log:    log,
		repo:   casefile.NewRepository(cfg.Paths.CasesDir),
		index:  index,
		engine: eng,
	}, nil
}

// buildRunIndex prefers the database registry when one is configured and
// falls back to the per-directory JSONL index otherwise
func buildRunIndex(cfg *config.Config) (ports.RunIndex, error) {
	if cfg.Database.URL == "" {
		return runindex.NewJSONLIndex(cfg.Paths.RunsDir), nil
	}
	db, err := postgres.Connect(context.Background(), cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	idx := postgres.NewRunIndex(db)
	if err := idx.EnsureSchema(context.Background()); err != nil {
		return nil, err
	}
	return idx, nil
}

func newRunCmd() *cobra.Command {
	var (
		caseSpec   string
		all        bool
		policyPath string
		keepRuns   int
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate cases and write run reports",
		Long: `Evaluate one case or the whole corpus against the active policy.

Example: abfactory run --case 3
         abfactory run --all --keep-runs 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !all && caseSpec == "" {
				return fmt.Errorf("either --case or --all is required")
			}
			w, err := buildWiring(policyPath, quiet)
			if err != nil {
				return err
			}
			svc := app.NewRunService(w.repo, w.index, w.engine, w.cfg.Paths.RunsDir, keepRuns, w.log)

			if all {
				results, err := svc.RunAll(cmd.Context())
				if err != nil {
					return err
				}
				for _, res := range results {
					fmt.Printf("%-12s %-14s confidence=%.4f  %s\n",
						res.CaseID, res.Decision.Decision, res.Decision.Confidence, res.Dir)
				}
				return nil
			}

			res, err := svc.Run(cmd.Context(), caseSpec)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %s (confidence %.4f)\nreasons: %v\nreport: %s\n",
				res.CaseID, res.Decision.Decision, res.Decision.Confidence,
				res.Decision.Reasons, res.Dir)
			return nil
		},
	}

	cmd.Flags().StringVar(&caseSpec, "case", "", "Case to run (name, prefix, or number)")
	cmd.Flags().BoolVar(&all, "all", false, "Run every discovered case")
	cmd.Flags().StringVar(&policyPath, "policy", "", "Policy file (defaults to org policy)")
	cmd.Flags().IntVar(&keepRuns, "keep-runs", 0, "Keep only the newest N run directories (0 keeps all)")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Log errors only")

	return cmd
}

func newSelfcheckCmd() *cobra.Command {
	var policyPath string

	cmd := &cobra.Command{
		Use:   "selfcheck",
		Short: "Compare decisions against labeled truth files",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := buildWiring(policyPath, false)
			if err != nil {
				return err
			}
			res, err := app.NewSelfcheckService(w.repo, w.engine, w.log).Check(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Print(res.Render())
			if len(res.Mismatches) > 0 {
				return fmt.Errorf("%d cases disagree with truth labels", len(res.Mismatches))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&policyPath, "policy", "", "Policy file (defaults to org policy)")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	var (
		n    int
		out  string
		seed uint64
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic labeled case corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				out = cfg.Paths.CasesDir
			}
			dirs, err := casegen.New(seed).Generate(out, n)
			if err != nil {
				return err
			}
			fmt.Printf("generated %d cases under %s\n", len(dirs), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&n, "n", 10, "Number of cases to generate")
	cmd.Flags().StringVar(&out, "out", "", "Output directory (defaults to cases dir)")
	cmd.Flags().Uint64Var(&seed, "seed", casegen.DefaultSeed, "Random seed for deterministic generation")

	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that every case directory is structurally usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := buildWiring("", false)
			if err != nil {
				return err
			}
			res, err := app.NewValidateService(w.repo, w.log).Validate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Print(res.Render())
			if !res.OK() {
				return fmt.Errorf("corpus validation failed")
			}
			return nil
		},
	}
}

func newSummarizeCmd() *cobra.Command {
	var xlsxPath string

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Describe the case corpus without evaluating it",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := buildWiring("", false)
			if err != nil {
				return err
			}
			svc := app.NewSummaryService(w.repo, w.log)
			overviews, err := svc.Overview(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Print(svc.Render(overviews))
			if xlsxPath != "" {
				return svc.ExportXLSX(overviews, xlsxPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "Also export the overview as a spreadsheet")
	return cmd
}

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run browser UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := buildWiring("", false)
			if err != nil {
				return err
			}
			if port == 0 {
				port = w.cfg.Server.Port
			}
			return ui.NewServer(w.index, w.cfg.Paths.RunsDir, w.log).Start(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (defaults to configured port)")
	return cmd
}
