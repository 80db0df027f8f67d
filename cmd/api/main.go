package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	server "hotel_concierge/internal/adapters/http_server"
	"hotel_concierge/internal/adapters/mq"
	"hotel_concierge/internal/adapters/observability"
	redisad "hotel_concierge/internal/adapters/redis"
	"hotel_concierge/internal/adapters/slots"
	"hotel_concierge/internal/app"
	"hotel_concierge/internal/domain"
	"hotel_concierge/internal/shared"
	"hotel_concierge/internal/storage/memory"
	mysqlrepo "hotel_concierge/internal/storage/mysql"
)

func main() {
	_ = godotenv.Load()
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	// set global logger (console in dev, JSON otherwise)
	observability.NewLogger(cfg.AppEnv, "api")

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	var db *sql.DB
	if cfg.NeedsMySQL() {
		db = openMySQL(cfg.MySQLDSN)
		defer db.Close()
	}

	catalog := openCatalog(cfg, db)
	ledger := openLedger(cfg, db)

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cache.Ping(pingCtx); err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, reads will miss the cache")
	}
	cancelPing()

	opts := []app.BookingOption{}
	if cfg.AMQPURL != "" {
		pub, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("rabbitmq publisher")
		}
		defer pub.Close()
		opts = append(opts, app.WithEvents(pub))
		log.Info().Str("exchange", cfg.AMQPExchange).Msg("booking events enabled")
	}

	q := app.NewQueryService(catalog, ledger, cache, cfg.CacheTTL())
	b := app.NewBookingService(catalog, ledger, opts...)

	// http
	srv := server.New(cfg.RequestTimeout())
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q:            q,
		B:            b,
		Parser:       slots.NewRegexParser(q),
		BookingRPS:   cfg.BookingRPS,
		BookingBurst: cfg.BookingBurst,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).
			Str("catalog", cfg.CatalogDriver).
			Str("ledger", cfg.LedgerDriver).
			Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("API stopped")
}

func openMySQL(dsn string) *sql.DB {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")
	return db
}

func openCatalog(cfg shared.Config, db *sql.DB) domain.CatalogSource {
	if cfg.CatalogDriver == shared.DriverMySQL {
		return mysqlrepo.NewCatalogRepo(db)
	}
	c, err := memory.LoadCatalogFile(cfg.CatalogFile, app.MapHotels)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.CatalogFile).Msg("load catalog")
	}
	snap, _ := c.Snapshot(context.Background())
	log.Info().Int("hotels", snap.Len()).Str("file", cfg.CatalogFile).Msg("catalog loaded")
	return c
}

func openLedger(cfg shared.Config, db *sql.DB) domain.Ledger {
	switch cfg.LedgerDriver {
	case shared.DriverMySQL:
		return mysqlrepo.NewLedgerRepo(db)
	case shared.DriverMemory:
		return memory.NewLedger()
	}
	l, err := memory.NewFileLedger(cfg.LedgerFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.LedgerFile).Msg("open ledger")
	}
	log.Info().Int("bookings", l.Len()).Str("file", cfg.LedgerFile).Msg("ledger loaded")
	return l
}
