package terminal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/de-tools/sales-report/pkg/adapters"
	"github.com/de-tools/sales-report/pkg/runtime/terminal/export"
	"github.com/de-tools/sales-report/pkg/services/chart"
	"github.com/de-tools/sales-report/pkg/services/config"
	"github.com/de-tools/sales-report/pkg/services/document"
	"github.com/de-tools/sales-report/pkg/services/report"
	"github.com/de-tools/sales-report/pkg/store/duckdb"
	"github.com/de-tools/sales-report/pkg/store/duckdb/sales"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"
)

// CLI represents the command-line interface
type CLI struct {
	opts    Options
	rootCmd *cobra.Command

	configPath string
	summary    bool
}

// Options contain configuration for the CLI
type Options struct {
	Output    io.Writer
	ErrOutput io.Writer
	Args      []string
	Clock     func() time.Time
	NewID     func() string
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ErrOutput == nil {
		opts.ErrOutput = os.Stderr
	}
	if opts.Args == nil {
		opts.Args = []string{}
	}

	cli := &CLI{opts: opts}
	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute(ctx context.Context) error {
	cli.rootCmd.SetArgs(cli.opts.Args)
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "sales-report",
		Short:             "Generate a PDF sales report from a CSV or XLSX file",
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadDotEnv,
		RunE:              cli.generate,
	}
	cmd.SetOut(cli.opts.Output)
	cmd.SetErr(cli.opts.ErrOutput)

	config.RegisterFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().StringVarP(&cli.configPath, "config", "c", "", "Path to a YAML config file")
	cmd.Flags().BoolVar(&cli.summary, "summary", false, "Print the aggregated figures as tables")

	cmd.AddCommand(cli.newHistoryCmd())
	return cmd
}

func loadDotEnv(_ *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// setup resolves the config and attaches a logger at its level to ctx
func (cli *CLI) setup(cmd *cobra.Command) (context.Context, *config.Config, error) {
	cfg, err := config.LoadConfig(cli.configPath, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level: %w", err)
	}
	logger := zerolog.New(cli.opts.ErrOutput).Level(level).With().Timestamp().Logger()
	return logger.WithContext(cmd.Context()), cfg, nil
}

func openArchive(path string) (sales.Store, func() error, error) {
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: path})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive: %w", err)
	}
	st, err := sales.NewStore(db)
	if err != nil {
		return nil, nil, errors.Join(fmt.Errorf("failed to create sales store: %w", err), db.Close())
	}
	return st, db.Close, nil
}

func (cli *CLI) generate(cmd *cobra.Command, _ []string) (err error) {
	ctx, cfg, err := cli.setup(cmd)
	if err != nil {
		return err
	}

	opts := report.Options{
		Renderer: chart.NewRenderer(chart.Options{
			Width:    vg.Length(cfg.Chart.WidthInches) * vg.Inch,
			Height:   vg.Length(cfg.Chart.HeightInches) * vg.Inch,
			Currency: cfg.Currency,
		}),
		Builder:  document.NewBuilder(document.DefaultLayout(), cfg.Title),
		Clock:    cli.opts.Clock,
		NewID:    cli.opts.NewID,
		Title:    cfg.Title,
		Currency: cfg.Currency,
	}

	if cfg.Archive.DBPath != "" {
		st, closeDB, openErr := openArchive(cfg.Archive.DBPath)
		if openErr != nil {
			return openErr
		}
		defer func() { err = errors.Join(err, closeDB()) }()
		opts.Archive = st
	}

	result, err := report.NewGenerator(opts).Run(ctx, cfg.Input, cfg.OutputDir)
	if err != nil {
		return err
	}

	if cli.summary {
		if err := export.NewReporter(cli.opts.Output, cfg.Currency).Summary(result.Summary); err != nil {
			return err
		}
		fmt.Fprintln(cli.opts.Output)
	}

	fmt.Fprintf(cli.opts.Output, "Report generated successfully: %s\n", result.OutputPath)
	return nil
}

type historyCmd struct {
	cli   *CLI
	limit int
	runID string
}

func (cli *CLI) newHistoryCmd() *cobra.Command {
	hc := &historyCmd{cli: cli}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List report runs stored in the archive",
		Args:  cobra.NoArgs,
		RunE:  hc.run,
	}

	cmd.Flags().IntVar(&hc.limit, "limit", 20, "Maximum number of runs to list")
	cmd.Flags().StringVar(&hc.runID, "run", "", "Show the archived breakdown of a single run")

	return cmd
}

func (hc *historyCmd) run(cmd *cobra.Command, _ []string) (err error) {
	ctx, cfg, err := hc.cli.setup(cmd)
	if err != nil {
		return err
	}
	if cfg.Archive.DBPath == "" {
		return fmt.Errorf("history needs an archive, set --%s", config.FlagDB)
	}

	st, closeDB, err := openArchive(cfg.Archive.DBPath)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, closeDB()) }()

	reporter := export.NewReporter(hc.cli.opts.Output, cfg.Currency)

	if hc.runID == "" {
		runs, err := st.ListRuns(ctx, hc.limit)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		return reporter.Runs(runs)
	}

	products, err := st.GetProductTotals(ctx, hc.runID)
	if err != nil {
		return fmt.Errorf("failed to get product totals: %w", err)
	}
	if len(products) == 0 {
		return fmt.Errorf("run %q not found", hc.runID)
	}
	regions, err := st.GetRegionTotals(ctx, hc.runID)
	if err != nil {
		return fmt.Errorf("failed to get region totals: %w", err)
	}

	if err := reporter.Totals("Product", adapters.MapStoreTotalsToDomain(products)); err != nil {
		return err
	}
	fmt.Fprintln(hc.cli.opts.Output)
	return reporter.Totals("Region", adapters.MapStoreTotalsToDomain(regions))
}
