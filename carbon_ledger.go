package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/RedHatInsights/carbon_ledger/config"
	"github.com/RedHatInsights/carbon_ledger/internal/api"
	"github.com/RedHatInsights/carbon_ledger/internal/calculator"
	"github.com/RedHatInsights/carbon_ledger/internal/ledger"
	"github.com/RedHatInsights/carbon_ledger/internal/logger"
	"github.com/RedHatInsights/carbon_ledger/internal/standards"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "carbon_ledger",
		Short: "Multi-tenant carbon accounting ledger",
	}
	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the API, the import listener, probes and metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(config.Get())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Get()
			log := logger.InitLogger(cfg)
			db, err := openDB(cfg)
			if err != nil {
				log.Errorf("Error connecting to database %v", err)
				return err
			}
			return migrate(db, log)
		},
	})
	return root
}

func openDB(cfg *config.LedgerConfig) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
}

func serve(cfg *config.LedgerConfig) error {
	log := logger.InitLogger(cfg)
	log.Info("Starting Carbon Ledger")
	defer log.Info("Finished Carbon Ledger")

	isReady := &atomic.Value{}
	isReady.Store(false)

	subscribed := &atomic.Value{}
	subscribed.Store(false)

	expvar.Publish("goroutines", expvar.Func(func() interface{} {
		return fmt.Sprintf("%d", runtime.NumGoroutine())
	}))
	expvar.Publish("kafka_subscribed", expvar.Func(func() interface{} {
		return subscribed.Load()
	}))

	db, err := openDB(cfg)
	if err != nil {
		log.Errorf("Error connecting to database %v", err)
		return err
	}
	log.Info("Connected to database")

	calc := calculator.NewClient(cfg.CalculatorURL, cfg.CalculatorPSK, &http.Client{Timeout: cfg.CalculatorTimeout})
	svc := ledger.NewService(ledger.NewGORMTransactor(db), calc, standards.Default())

	web := &http.Server{Addr: fmt.Sprintf(":%d", cfg.WebPort), Handler: webHandler(svc, log, cfg.CORSAllowedOrigins, isReady)}
	prom := &http.Server{Addr: fmt.Sprintf(":%d", cfg.MetricsPort), Handler: metricsHandler()}
	go listen(web, log)
	go listen(prom, log)
	isReady.Store(true)

	sigs := make(chan os.Signal, 1)
	shutdown := make(chan struct{})
	var workerGroup sync.WaitGroup
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	workerGroup.Add(1)
	go startKafkaListener(cfg, log, newImportStarter(svc, &http.Client{}), shutdown, &workerGroup, subscribed)

	sig := <-sigs
	log.Infof("Received signal %v, shutting down", sig)
	isReady.Store(false)
	close(shutdown)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for _, srv := range []*http.Server{web, prom} {
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("Error shutting down server on %s %v", srv.Addr, err)
		}
	}
	workerGroup.Wait()
	log.Info("exiting")
	return nil
}

func listen(srv *http.Server, log *logrus.Entry) {
	log.Infof("Listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Errorf("Server on %s failed %v", srv.Addr, err)
	}
}

func metricsHandler() http.Handler {
	prometheusMux := http.NewServeMux()
	prometheusMux.Handle("/metrics", promhttp.Handler())
	prometheusMux.Handle("/debug/vars", expvar.Handler())
	return prometheusMux
}

// webHandler serves the API and the probes
func webHandler(svc *ledger.Service, log *logrus.Entry, allowedOrigins []string, isReady *atomic.Value) http.Handler {
	srv := api.NewServer(svc, log, allowedOrigins)
	srv.Router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	srv.Router.Get("/ready", func(w http.ResponseWriter, _ *http.Request) {
		if ready, _ := isReady.Load().(bool); !ready {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return srv.Router
}
