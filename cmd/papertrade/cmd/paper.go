package cmd

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/quantlab/papertrade/feed"
	"github.com/quantlab/papertrade/paper"
)

var paperCmd = &cobra.Command{
	Use:   "paper",
	Short: "Run a live paper-trading session",
	Long: `Paper connects to a websocket quote feed and trades against the
simulator in real time. Prometheus metrics are served on --metrics-addr.

Example:
  papertrade paper -c sim.yaml --ws ws://quotes.example.com/stream`,
	RunE: runPaper,
}

var (
	paperWSURL       string
	paperMetricsAddr string
)

func init() {
	rootCmd.AddCommand(paperCmd)

	paperCmd.Flags().StringVar(&paperWSURL, "ws", "", "websocket quote URL (overrides config)")
	paperCmd.Flags().StringVar(&paperMetricsAddr, "metrics-addr", ":9090", "prometheus metrics listen address (empty disables)")
}

func runPaper(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if paperWSURL != "" {
		cfg.Data.WSURL = paperWSURL
	}
	if cfg.Data.WSURL == "" {
		return fmt.Errorf("no quote URL configured (set data.ws_url or --ws)")
	}
	if len(cfg.Data.Symbols) == 0 {
		return fmt.Errorf("no symbols configured")
	}

	log, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Sync()

	cal, err := buildCalendar(cfg)
	if err != nil {
		return err
	}
	jrnl, err := buildJournal(cfg, log)
	if err != nil {
		return err
	}
	defer jrnl.Close()

	if paperMetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(paperMetricsAddr, mux); err != nil {
				log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		log.Info("metrics listening", zap.String("addr", paperMetricsAddr))
	}

	src, err := feed.DialWS(cfg.Data.WSURL, cfg.Data.Symbols)
	if err != nil {
		return fmt.Errorf("connect quote feed: %w", err)
	}
	defer src.Close()

	trader := paper.NewTrader(paper.Config{
		AccountID:      cfg.Account.ID,
		InitialCapital: cfg.Account.InitialCapital,
		Costs:          cfg.Costs.Model(),
		Limits:         cfg.Risk.Limits(),
		T1Settlement:   cfg.Account.T1Settlement,
		SnapshotEvery:  snapshotInterval(cfg),
	}, cal, jrnl, log)

	log.Info("paper trading",
		zap.String("feed", cfg.Data.WSURL),
		zap.Strings("symbols", cfg.Data.Symbols))

	return trader.Run(cmd.Context(), src)
}
