// tokensaled runs the token ledger, sale controller, event feed and the
// optional Ethereum deposit gateway as one process.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/blocknova/tokensale/config"
	"github.com/blocknova/tokensale/feed"
	"github.com/blocknova/tokensale/gateway"
	"github.com/blocknova/tokensale/sale"
	"github.com/blocknova/tokensale/storage"
	"github.com/blocknova/tokensale/token"
	"github.com/blocknova/tokensale/whitelist"
)

// Version is overridable via build ldflags:
//
//	go build -ldflags "-X main.Version=1.2.3" ./cmd/tokensaled
var Version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:     "tokensaled",
	Short:   "Capped-issuance token ledger with crowdsale controller",
	Version: Version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ledger daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func main() {
	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.ColoredLogs {
		logger.SetFormatter(&logrus.TextFormatter{ForceColors: true})
	}
	return logger
}

func serve() error {
	cfg := config.Load()
	logger := newLogger(cfg)

	color.Cyan("tokensaled %s: %s (%s, %d decimals)", Version, token.Name, token.Symbol, token.DecimalPlaces)

	store, err := storage.Open(cfg.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	ledger := token.NewLedger(cfg.OwnerAddress, logger)
	wl := whitelist.NewManager(cfg.OwnerAddress, logger)
	controller := sale.NewController(cfg.OwnerAddress, cfg.SaleControllerID, logger)

	if err := restoreState(store, ledger, wl, controller); err != nil {
		return err
	}

	if err := ledger.SetWhitelist(cfg.OwnerAddress, wl, cfg.EnforceWhitelist); err != nil {
		return err
	}
	if ledger.SaleController() == "" {
		if err := ledger.SetSaleController(cfg.OwnerAddress, cfg.SaleControllerID); err != nil {
			return err
		}
	}
	if controller.Rate() == 0 {
		if err := controller.StartICO(cfg.OwnerAddress, cfg.SaleRate, ledger); err != nil {
			return err
		}
	}

	hub := feed.NewHub(logger)
	events := ledger.Subscribe(256)
	go hub.Run(events)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWS)
	mux.HandleFunc("/status", statusHandler(ledger, controller, hub))
	server := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	go func() {
		logger.WithField("addr", cfg.ListenAddr).Info("http server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("http server stopped")
		}
	}()

	var watcher *gateway.DepositWatcher
	if cfg.EthereumRPC != "" && cfg.DepositAddress != "" {
		watcher, err = gateway.NewDepositWatcher(cfg.EthereumRPC, cfg.DepositAddress,
			controller, store, time.Duration(cfg.PollIntervalMs)*time.Millisecond, logger)
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	logger.Info("shutting down")
	if watcher != nil {
		watcher.Stop()
	}
	ledger.Unsubscribe(events)
	server.Close()
	return saveState(store, ledger, wl, controller)
}

func restoreState(store *storage.Store, ledger *token.Ledger, wl *whitelist.Manager, controller *sale.Controller) error {
	if snap, err := store.LoadLedger(); err != nil {
		return err
	} else if snap != nil {
		ledger.Restore(*snap)
	}
	if members, err := store.LoadWhitelist(); err != nil {
		return err
	} else if members != nil {
		wl.Restore(members)
	}
	if snap, err := store.LoadSale(); err != nil {
		return err
	} else if snap != nil {
		controller.Restore(*snap, ledger)
	}
	return nil
}

func saveState(store *storage.Store, ledger *token.Ledger, wl *whitelist.Manager, controller *sale.Controller) error {
	if err := store.SaveLedger(ledger.Snapshot()); err != nil {
		return err
	}
	if err := store.SaveWhitelist(wl.Members()); err != nil {
		return err
	}
	return store.SaveSale(controller.Snapshot())
}

func statusHandler(ledger *token.Ledger, controller *sale.Controller, hub *feed.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]interface{}{
			"token":          token.Symbol,
			"total_supply":   ledger.TotalSupply(),
			"sale_active":    controller.Active(),
			"sale_rate":      controller.Rate(),
			"remaining_sale": controller.RemainingTokensForSale(),
			"proceeds":       controller.Proceeds().String(),
			"mainsale_open":  ledger.MainSaleUnlocked(),
			"holders":        len(ledger.HoldersWithBalance()),
			"whitelisting":   ledger.WhitelistEnforced(),
			"issued": map[string]int64{
				"airdrop":      ledger.IssuedTotal(token.CategoryAirdrop),
				"bounty":       ledger.IssuedTotal(token.CategoryBounty),
				"seed_presale": ledger.IssuedTotal(token.CategorySeedPresale),
				"mainsale":     ledger.IssuedTotal(token.CategoryMainSale),
			},
			"feed_clients": hub.ClientCount(),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	}
}
