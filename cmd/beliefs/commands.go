package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Harshitk-cp/rlbelief/internal/bootstrap"
	"github.com/Harshitk-cp/rlbelief/internal/buildconfig"
	"github.com/Harshitk-cp/rlbelief/internal/config"
	"github.com/Harshitk-cp/rlbelief/internal/evidence"
	"github.com/Harshitk-cp/rlbelief/internal/service"
	"github.com/Harshitk-cp/rlbelief/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli holds what every subcommand shares once the root has opened the backend.
type cli struct {
	dataDir  string
	logLevel string

	logger   *zap.Logger
	backend  *bootstrap.Backend
	beliefs  *service.BeliefService
	rankings *service.RankingService
}

// newRootCmd builds the command tree over c. The caller closes c.
func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "beliefs",
		Short:         "Track and rank belief in RL techniques from scored evidence",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return c.open(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.dataDir, "data-dir", "", "snapshot directory (overrides SNAPSHOT_BACKEND and DATA_DIR)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level (defaults to LOG_LEVEL, then warn)")

	root.AddCommand(
		c.ingestCmd(),
		c.viewCmd(),
		c.rankCmd(),
		c.compareCmd(),
		c.snapshotCmd(),
		versionCmd(),
	)
	return root
}

func (c *cli) open(cmd *cobra.Command) error {
	level := c.logLevel
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = "warn"
	}
	logger, err := bootstrap.NewLogger(level)
	if err != nil {
		return err
	}
	c.logger = logger

	if c.dataDir != "" {
		fs, err := store.NewFileSnapshotStore(c.dataDir, logger)
		if err != nil {
			return err
		}
		c.backend = &bootstrap.Backend{Store: fs, Kind: config.BackendFile, Close: func() {}}
	} else {
		c.backend, err = bootstrap.OpenBackend(cmd.Context(), logger)
		if err != nil {
			return err
		}
	}

	c.beliefs, c.rankings = bootstrap.Services(c.backend, logger)
	return nil
}

func (c *cli) close() {
	if c.backend != nil {
		c.backend.Close()
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Collect evidence from JSON / JSON-lines files and apply it as one batch",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := make([]evidence.Source, len(args))
			for i, path := range args {
				sources[i] = evidence.NewFileSource(path)
			}

			batch, err := evidence.Collect(cmd.Context(), c.logger, sources...)
			if err != nil {
				return err
			}
			res, err := c.beliefs.Apply(cmd.Context(), batch)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
}

func (c *cli) viewCmd() *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Print the belief summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sum, err := c.rankings.Summary(cmd.Context(), topK)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sum)
		},
	}
	cmd.Flags().IntVar(&topK, "top-k", 0, "names per summary list (defaults to SUMMARY_TOP_K)")
	return cmd
}

func (c *cli) rankCmd() *cobra.Command {
	var (
		minCertainty     float64
		maxEffectiveness float64
		maxCertainty     float64
		limit            int
	)
	cmd := &cobra.Command{
		Use:       "rank effective|overhyped|uncertain",
		Short:     "Print one ranked view of the current beliefs",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"effective", "overhyped", "uncertain"},
		RunE: func(cmd *cobra.Command, args []string) error {
			th := c.rankings.Config().Thresholds
			flags := cmd.Flags()

			var (
				rows any
				err  error
			)
			switch args[0] {
			case "effective":
				if !flags.Changed("min-certainty") {
					minCertainty = th.MinCertainty
				}
				rows, err = c.rankings.Effective(cmd.Context(), minCertainty)
			case "overhyped":
				if !flags.Changed("min-certainty") {
					minCertainty = th.OverhypeMinCertainty
				}
				if !flags.Changed("max-effectiveness") {
					maxEffectiveness = th.OverhypeMaxEffectiveness
				}
				rows, err = c.rankings.Overhyped(cmd.Context(), minCertainty, maxEffectiveness)
			case "uncertain":
				if !flags.Changed("max-certainty") {
					maxCertainty = th.UncertainMaxCertainty
				}
				rows, err = c.rankings.Uncertain(cmd.Context(), maxCertainty, limit)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rows)
		},
	}
	cmd.Flags().Float64Var(&minCertainty, "min-certainty", 0, "certainty floor")
	cmd.Flags().Float64Var(&maxEffectiveness, "max-effectiveness", 0, "effectiveness ceiling for overhyped")
	cmd.Flags().Float64Var(&maxCertainty, "max-certainty", 0, "certainty ceiling for uncertain")
	cmd.Flags().IntVar(&limit, "limit", 0, "truncate the uncertain view")
	return cmd
}

func (c *cli) compareCmd() *cobra.Command {
	var (
		samples int
		seed    uint64
	)
	cmd := &cobra.Command{
		Use:   "compare A B",
		Short: "Estimate P(A more effective than B) by Monte Carlo sampling",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var sd *uint64
			if cmd.Flags().Changed("seed") {
				sd = &seed
			}
			cmp, err := c.rankings.Compare(cmd.Context(), args[0], args[1], samples, sd)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cmp)
		},
	}
	cmd.Flags().IntVar(&samples, "samples", 0, "draws per posterior (defaults to COMPARE_SAMPLES)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "sampler seed (defaults to COMPARE_SEED)")
	return cmd
}

func (c *cli) snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Export or import the belief snapshot",
	}

	export := &cobra.Command{
		Use:   "export [FILE]",
		Short: "Write the current snapshot as JSON to FILE or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.beliefs.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 0 || args[0] == "-" {
				return printJSON(cmd.OutOrStdout(), snap)
			}
			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			if err := printJSON(f, snap); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}

	imp := &cobra.Command{
		Use:   "import FILE",
		Short: "Validate FILE and make it the current snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			snap, err := store.DecodeSnapshot(raw)
			if err != nil {
				return err
			}
			ref, err := c.beliefs.Import(cmd.Context(), snap)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), ref)
		},
	}

	history := &cobra.Command{
		Use:   "list",
		Short: "List persisted snapshots, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			refs, err := c.beliefs.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), refs)
		},
	}
	history.Flags().Int("limit", 20, "maximum snapshots to list")

	cmd.AddCommand(export, imp, history)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildconfig.VersionInfo()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "beliefs %s (%s, %s)\n", info["version"], info["commit"], info["go"])
			return err
		},
	}
}
