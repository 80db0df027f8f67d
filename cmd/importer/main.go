package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hotel_concierge/internal/adapters/catalogfeed"
	"hotel_concierge/internal/adapters/observability"
	redisad "hotel_concierge/internal/adapters/redis"
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

	// 1) initialize global logger (console in dev, JSON otherwise)
	observability.NewLogger(cfg.AppEnv, "importer")
	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("feed", cfg.FeedURL).
		Str("catalog", cfg.CatalogDriver).
		Int("workers", cfg.ImportWorkers).
		Int("rps", cfg.ImportRPS).
		Msg("importer starting")

	client, err := catalogfeed.New(cfg.FeedURL, cfg.FeedKey, cfg.ImportRPS)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize catalog feed client")
	}
	if cfg.FeedKey == "" {
		log.Warn().Msg("CATALOG_FEED_KEY is empty")
	}

	// 2) pick the catalog store the API reads from
	var (
		writer  domain.CatalogWriter
		fileCat *memory.Catalog
	)
	if cfg.CatalogDriver == shared.DriverMySQL {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("sql.Open failed")
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("db.Ping failed")
		}
		log.Info().Msg("db ping ok")
		writer = mysqlrepo.NewCatalogRepo(db)
	} else {
		fileCat = loadOrEmpty(cfg.CatalogFile)
		writer = fileCat
	}

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()

	imp := app.NewImportService(client, writer, cache)
	ids, err := imp.ListHotelIDs(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list feed hotel ids")
	}
	log.Info().Int("hotels", len(ids)).Msg("feed listed")

	// 3) fan out; acquire before launching the goroutine, release inside it
	sem := semaphore.NewWeighted(int64(cfg.ImportWorkers))
	var wg sync.WaitGroup
	var ok, failed atomic.Int64

	for _, id := range ids {
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Warn().Err(err).Msg("import interrupted")
			break
		}
		wg.Add(1)
		go func(hotelID string) {
			defer wg.Done()
			defer sem.Release(1)

			err := imp.ImportHotel(ctx, hotelID)
			observability.ObserveImport(err)
			if err != nil {
				failed.Add(1)
				log.Warn().Str("hotel_id", hotelID).Err(err).Msg("import failed")
				return
			}
			ok.Add(1)
			log.Debug().Str("hotel_id", hotelID).Msg("import ok")
		}(id)
	}
	wg.Wait()

	if fileCat != nil {
		if err := fileCat.SaveFile(cfg.CatalogFile); err != nil {
			log.Fatal().Err(err).Str("file", cfg.CatalogFile).Msg("write catalog file")
		}
	}
	log.Info().Int64("ok", ok.Load()).Int64("failed", failed.Load()).Msg("import completed")
}

// loadOrEmpty starts from the existing catalog file so hotels the feed
// no longer lists are kept.
func loadOrEmpty(path string) *memory.Catalog {
	if _, err := os.Stat(path); err == nil {
		c, err := memory.LoadCatalogFile(path, app.MapHotels)
		if err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("load catalog")
		}
		return c
	}
	c, _ := memory.NewCatalog(nil)
	return c
}
