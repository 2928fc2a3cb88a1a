package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/rewired-gh/crimescope/internal/config"
	"github.com/rewired-gh/crimescope/internal/export"
	"github.com/rewired-gh/crimescope/internal/fetch"
	"github.com/rewired-gh/crimescope/internal/incident"
	"github.com/rewired-gh/crimescope/internal/logger"
	"github.com/rewired-gh/crimescope/internal/period"
	"github.com/rewired-gh/crimescope/internal/rank"
	"github.com/rewired-gh/crimescope/internal/render"
	"github.com/rewired-gh/crimescope/internal/session"
	"github.com/rewired-gh/crimescope/internal/telegram"
)

// app carries the state shared by all subcommands of one invocation.
type app struct {
	configPath string
	dataPath   string
	logLevel   string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "crimescope",
		Short: "Explore when and what kinds of crime happen in an incident dataset",
		Long: `crimescope loads a police incident file (CSV or XLSX) and answers
questions about it: which offenses cluster around the same hours, how an
offense is spread over the day, and how the most frequent offenses shift
between months and seasons.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "configs/config.yaml", "Path to configuration file")
	root.PersistentFlags().StringVar(&a.dataPath, "data", "", "Incident file to load (overrides dataset.path)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides logging.level)")

	root.AddCommand(
		a.offensesCmd(),
		a.networkCmd(),
		a.hourlyCmd(),
		a.rankCmd(),
		a.seasonalityCmd(),
		a.sendCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dataPath != "" {
		cfg.Dataset.Path = a.dataPath
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.SetOutput(cmd.ErrOrStderr())
	logger.Debug("configuration loaded from %s", a.configPath)
	a.cfg = cfg
	return nil
}

// open creates a session and loads the configured dataset into it,
// downloading it first when the path is a URL.
func (a *app) open(cmd *cobra.Command) (*session.Session, error) {
	path, err := fetch.NewClient(a.cfg.FetchConfig()).Resolve(cmd.Context(), a.cfg.Dataset.Path)
	if err != nil {
		return nil, err
	}
	s := session.New(a.cfg.LoaderOptions())
	if err := s.Load(cmd.Context(), path); err != nil {
		return nil, err
	}
	if info, err := s.Info(); err == nil {
		logger.Info("session %s: kept %d of %d records from %s (%d in excluded years)",
			info.ID, info.Stats.Kept, info.Stats.Rows, info.Source, info.Stats.ExcludedYear)
	}
	return s, nil
}

// writeChart renders a chart with draw and writes it to path.
func (a *app) writeChart(path string, draw func(w io.Writer) error) error {
	var buf bytes.Buffer
	if err := draw(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), a.cfg.Export.FilePermissions); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	logger.Info("chart written to %s", path)
	return nil
}

func (a *app) offensesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "offenses",
		Short: "List the distinct offenses in the dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open(cmd)
			if err != nil {
				return err
			}
			offenses, err := s.Offenses()
			if err != nil {
				return err
			}
			for _, o := range offenses {
				fmt.Fprintln(cmd.OutOrStdout(), o)
			}
			return nil
		},
	}
}

func (a *app) networkCmd() *cobra.Command {
	var (
		offense  string
		minCount int
		svgPath  string
	)
	cmd := &cobra.Command{
		Use:   "network",
		Short: "Show the offenses that peak in the same hours as an offense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			offense, minCount = a.offenseArgs(cmd, offense, minCount)
			if offense == "" {
				return fmt.Errorf("--offense is required")
			}
			s, err := a.open(cmd)
			if err != nil {
				return err
			}
			net, err := s.LocalNetwork(offense, minCount)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Local network of %s (count >= %d)\n\n", net.Offense, minCount)
			if err := render.NetworkTable(cmd.OutOrStdout(), net); err != nil {
				return err
			}
			if svgPath == "" {
				return nil
			}
			return a.writeChart(svgPath, func(w io.Writer) error {
				return render.NetworkChart(w, net, a.chartSize())
			})
		},
	}
	cmd.Flags().StringVar(&offense, "offense", "", "Offense to center the network on (default analysis.offense)")
	cmd.Flags().IntVar(&minCount, "min", 0, "Minimum incidents per offense and hour (default analysis.min_count)")
	cmd.Flags().StringVar(&svgPath, "svg", "", "Also write the network as an SVG chart to this file")
	return cmd
}

func (a *app) hourlyCmd() *cobra.Command {
	var (
		offense  string
		minCount int
		svgPath  string
	)
	cmd := &cobra.Command{
		Use:   "hourly",
		Short: "Show how an offense is spread over the hours of the day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			offense, minCount = a.offenseArgs(cmd, offense, minCount)
			if offense == "" {
				return fmt.Errorf("--offense is required")
			}
			s, err := a.open(cmd)
			if err != nil {
				return err
			}
			series, err := s.HourlySeries(offense, minCount)
			if err != nil {
				return err
			}
			if err := render.HourlyTable(cmd.OutOrStdout(), series); err != nil {
				return err
			}
			if svgPath == "" {
				return nil
			}
			return a.writeChart(svgPath, func(w io.Writer) error {
				return render.HourlyChart(w, offense, series, a.chartSize())
			})
		},
	}
	cmd.Flags().StringVar(&offense, "offense", "", "Offense to plot (default analysis.offense)")
	cmd.Flags().IntVar(&minCount, "min", 0, "Minimum incidents per hour (default analysis.min_count)")
	cmd.Flags().StringVar(&svgPath, "svg", "", "Also write the series as an SVG chart to this file")
	return cmd
}

// offenseArgs fills unset offense flags from the configuration.
func (a *app) offenseArgs(cmd *cobra.Command, offense string, minCount int) (string, int) {
	if !cmd.Flags().Changed("offense") {
		offense = a.cfg.Analysis.Offense
	}
	if !cmd.Flags().Changed("min") {
		minCount = a.cfg.Analysis.MinCount
	}
	return offense, minCount
}

func (a *app) rankCmd() *cobra.Command {
	var (
		modeName        string
		periodName      string
		top             int
		excludeNonCrime bool
	)
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank the most frequent offenses of every month or season",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("mode") {
				modeName = a.cfg.Analysis.Mode
			}
			if !cmd.Flags().Changed("top") {
				top = a.cfg.Analysis.TopN
			}
			if top < 1 {
				return fmt.Errorf("%w: --top %d", incident.ErrNonPositiveN, top)
			}
			mode, err := period.ParseMode(modeName)
			if err != nil {
				return err
			}
			var single period.Period
			if periodName != "" {
				if single, err = period.ParseAny(periodName); err != nil {
					return err
				}
			}
			s, err := a.open(cmd)
			if err != nil {
				return err
			}

			var exclude []string
			if excludeNonCrime {
				exclude = a.cfg.Analysis.Exclude
			}
			// Rank deep enough that top entries survive the exclusion.
			depth := top + len(exclude)
			var (
				ranking rank.Ranking
				order   []period.Period
			)
			if periodName != "" {
				rp, err := s.RankPeriod(single, depth)
				if err != nil {
					return err
				}
				ranking = rank.Ranking{single: rp}
				order = []period.Period{single}
			} else {
				if ranking, err = s.Rank(mode, depth); err != nil {
					return err
				}
				order = period.Periods(mode)
			}
			rows := rank.Exclude(rank.Flatten(ranking, order), exclude)
			return render.RankingTable(cmd.OutOrStdout(), rank.Group(rows, order, top))
		},
	}
	cmd.Flags().StringVar(&modeName, "mode", "season", "Partition by month or season (default analysis.mode)")
	cmd.Flags().StringVar(&periodName, "period", "", "Rank a single month or season, e.g. April, 4 or Spring (overrides --mode)")
	cmd.Flags().IntVar(&top, "top", 3, "Offenses to show per period (default analysis.top_n)")
	cmd.Flags().BoolVar(&excludeNonCrime, "exclude-non-crime", false, "Drop the analysis.exclude categories before ranking")
	return cmd
}

func (a *app) seasonalityCmd() *cobra.Command {
	var (
		outDir string
		notify bool
	)
	cmd := &cobra.Command{
		Use:   "seasonality",
		Short: "Run the full seasonality report and export charts and JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.open(cmd)
			if err != nil {
				return err
			}
			opts := a.cfg.ReportOptions()
			result, err := s.Report(opts)
			if err != nil {
				return err
			}
			report := export.NewReport(result, a.cfg.Dataset.Path)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Top %d offenses by %s\n\n", opts.TopN, opts.Mode)
			if err := render.RankingTable(out, result.Top); err != nil {
				return err
			}
			fmt.Fprintf(out, "\nTotals excluding %d non-crime categories\n\n", len(opts.Exclude))
			if err := render.TotalsTable(out, result.Totals); err != nil {
				return err
			}
			fmt.Fprintln(out)
			if err := render.SummaryTable(out, report.Summary); err != nil {
				return err
			}

			labels := make([]string, len(result.Order))
			for i, p := range result.Order {
				labels[i] = p.Label()
			}
			keywordTrends := make([]rank.Trend, 0, len(result.Keywords))
			for _, kw := range result.Keywords {
				fs := make([]int, len(kw.Totals))
				for i, t := range kw.Totals {
					fs[i] = t.Frequency
				}
				keywordTrends = append(keywordTrends, rank.Trend{Category: kw.Keyword, Frequencies: fs})
			}
			fmt.Fprintf(out, "\nKeyword totals by %s\n\n", opts.Mode)
			if err := render.TrendTable(out, keywordTrends, labels); err != nil {
				return err
			}

			chartDir, reportDir := a.cfg.Render.OutDir, a.cfg.Export.Dir
			if outDir != "" {
				chartDir, reportDir = outDir, outDir
			}
			if err := a.writeCharts(chartDir, result, keywordTrends); err != nil {
				return err
			}
			w := export.NewWriter(reportDir, a.cfg.Export.FilePermissions, a.cfg.Export.DirPermissions)
			path, err := w.Write(report)
			if err != nil {
				return fmt.Errorf("failed to export report: %w", err)
			}
			fmt.Fprintf(out, "\nReport written to %s\n", path)

			if notify {
				return a.notify(report)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "Directory for charts and the JSON report (default render.out_dir and export.dir)")
	cmd.Flags().BoolVar(&notify, "notify", false, "Send a digest of the report to Telegram")
	return cmd
}

func (a *app) sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send REPORT",
		Short: "Send a previously exported seasonality report to Telegram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := export.Read(args[0])
			if err != nil {
				return err
			}
			if !a.cfg.Telegram.Enabled {
				return fmt.Errorf("telegram is disabled: set telegram.enabled to send %s", args[0])
			}
			return a.notify(report)
		},
	}
}

func (a *app) writeCharts(dir string, result session.Seasonality, keywordTrends []rank.Trend) error {
	w := export.NewWriter(dir, a.cfg.Export.FilePermissions, a.cfg.Export.DirPermissions)
	size := a.chartSize()
	mode := result.Mode.String()

	var buf bytes.Buffer
	title := fmt.Sprintf("Total Intentional Crimes by %s", modeTitle(result.Mode))
	if err := render.TotalsChart(&buf, result.Totals, title, size); err != nil {
		return err
	}
	if _, err := w.WriteFile(fmt.Sprintf("totals-%s.svg", mode), buf.Bytes()); err != nil {
		return err
	}

	buf.Reset()
	title = fmt.Sprintf("Crime Families by %s", modeTitle(result.Mode))
	if err := render.TrendChart(&buf, keywordTrends, result.Order, title, size); err != nil {
		return err
	}
	path, err := w.WriteFile(fmt.Sprintf("keywords-%s.svg", mode), buf.Bytes())
	if err != nil {
		return err
	}
	logger.Info("charts written to %s", filepath.Dir(path))
	return nil
}

func (a *app) notify(report export.Report) error {
	tc := a.cfg.Telegram
	if !tc.Enabled {
		logger.Warn("--notify ignored: telegram is disabled")
		return nil
	}
	client, err := telegram.NewClient(tc.BotToken, tc.ChatID, tc.MaxRetries, tc.RetryDelayBase)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram client: %w", err)
	}
	if err := client.SendReport(report); err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}
	return nil
}

func (a *app) chartSize() render.Size {
	return render.Size{Width: a.cfg.Render.Width, Height: a.cfg.Render.Height}
}

func modeTitle(m period.Mode) string {
	if m == period.ByMonth {
		return "Month"
	}
	return "Season"
}
