//go:build integration

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"hotel_concierge/internal/domain"
	mysqlrepo "hotel_concierge/internal/storage/mysql"
)

func migrationsDir() string {
	if d := os.Getenv("MIGRATIONS_DIR"); d != "" {
		return d
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir()

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir %s: %v", dir, err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// startMySQL runs an isolated MySQL; Docker picks a free host port.
func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env:        []string{"MYSQL_ROOT_PASSWORD=root", "MYSQL_DATABASE=hotels"},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/hotels?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	pool.MaxWait = 2 * time.Minute
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func date(t *testing.T, s string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestMySQL_CatalogAndLedger(t *testing.T) {
	db := startMySQL(t)
	ctx := context.Background()

	catalog := mysqlrepo.NewCatalogRepo(db)
	h := domain.HotelRecord{
		ID: "HOTEL001", Name: "Taj Palace", Location: "Delhi", Stars: 5, GuestRating: 4.9,
		Amenities: []string{"Pool", "Spa"}, RoomTypes: []string{"Deluxe", "Suite"},
		PricePerNight: 18000, MaxAdults: 4, MaxChildren: 2,
	}
	if err := catalog.UpsertHotel(ctx, h, []byte(`{"hotel_id":"HOTEL001"}`)); err != nil {
		t.Fatalf("UpsertHotel: %v", err)
	}
	h.PricePerNight = 19000
	if err := catalog.UpsertHotel(ctx, h, nil); err != nil {
		t.Fatalf("UpsertHotel again: %v", err)
	}
	snap, err := catalog.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	got, ok := snap.Get("HOTEL001")
	if !ok || got.PricePerNight != 19000 || got.GuestRating != 4.9 || len(got.RoomTypes) != 2 {
		t.Fatalf("unexpected hotel: %+v", got)
	}

	ledger := mysqlrepo.NewLedgerRepo(db)
	b := domain.Booking{
		ID: "00000000-0000-0000-0000-000000000001", HotelID: "HOTEL001",
		GuestName: "A", GuestEmail: "a@b.com",
		CheckIn: date(t, "2099-01-10"), CheckOut: date(t, "2099-01-12"),
		Adults: 2, RoomType: domain.RoomDeluxe, PricePerNight: 19000, TotalPrice: 38000,
		Status: domain.StatusConfirmed, CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	if err := ledger.Append(ctx, b); err != nil {
		t.Fatalf("Append: %v", err)
	}

	clash := b
	clash.ID = "00000000-0000-0000-0000-000000000002"
	clash.CheckIn, clash.CheckOut = date(t, "2099-01-11"), date(t, "2099-01-13")
	if err := ledger.Append(ctx, clash); !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}

	back, err := ledger.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if back.CheckIn.String() != "2099-01-10" || back.TotalPrice != 38000 || !back.CreatedAt.Equal(b.CreatedAt) {
		t.Fatalf("round trip mismatch: %+v", back)
	}

	if err := ledger.UpdateStatus(ctx, b.ID, domain.StatusCancelled); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if err := ledger.UpdateStatus(ctx, "missing", domain.StatusCancelled); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("UpdateStatus missing: %v", err)
	}
	if err := ledger.Append(ctx, clash); err != nil {
		t.Fatalf("Append after cancel: %v", err)
	}
	all, err := ledger.FindByHotel(ctx, "HOTEL001")
	if err != nil || len(all) != 2 {
		t.Fatalf("FindByHotel: %d %v", len(all), err)
	}
}

func TestMySQL_ConcurrentAppendsSerialise(t *testing.T) {
	db := startMySQL(t)
	ledger := mysqlrepo.NewLedgerRepo(db)
	ctx := context.Background()

	in, out := date(t, "2099-06-01"), date(t, "2099-06-03")
	const n = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := ledger.Append(ctx, domain.Booking{
				ID: fmt.Sprintf("00000000-0000-0000-0000-%012d", i), HotelID: "HOTEL777",
				GuestName: "G", GuestEmail: "g@x.io",
				CheckIn: in, CheckOut: out,
				Adults: 1, RoomType: domain.RoomDeluxe, Status: domain.StatusConfirmed,
				CreatedAt: time.Now().UTC(),
			})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 {
		t.Fatalf("expected exactly one append to win, got %d", wins)
	}
}
