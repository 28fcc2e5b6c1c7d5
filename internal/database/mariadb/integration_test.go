//go:build integration

package mariadb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/facematch"
	"github.com/testcontainers/testcontainers-go"
	tcmariadb "github.com/testcontainers/testcontainers-go/modules/mariadb"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestContainer(t *testing.T) (*IdentityRepository, func()) {
	ctx := context.Background()

	container, err := tcmariadb.Run(ctx,
		"mariadb:11",
		tcmariadb.WithDatabase("testdb"),
		tcmariadb.WithUsername("test"),
		tcmariadb.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("ready for connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	dsn, err := container.ConnectionString(ctx)
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to get connection string: %v", err)
	}

	cfg := &config.DatabaseConfig{
		Driver:       config.DriverMariaDB,
		URL:          dsn,
		MaxOpenConns: 10,
		MaxIdleConns: 2,
	}

	// MariaDB may need a moment after reporting ready
	var pool *Pool
	for range 10 {
		pool, err = NewPool(ctx, cfg)
		if err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if err != nil {
		container.Terminate(ctx)
		t.Fatalf("Failed to connect: %v", err)
	}
	if err := pool.Migrate(ctx); err != nil {
		pool.Close()
		container.Terminate(ctx)
		t.Fatalf("Failed to migrate: %v", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}
	return NewIdentityRepository(pool), cleanup
}

func descriptor(seed float32) []float32 {
	d := make([]float32, 128)
	for i := range d {
		d[i] = seed
	}
	return d
}

func newRecord(name string, desc []float32, created time.Time) *database.EnrolledRecord {
	return &database.EnrolledRecord{
		ID:           uuid.NewString(),
		Name:         name,
		Descriptor:   desc,
		CreatedAt:    created,
		LastAccessAt: created,
		AccessCount:  1,
	}
}

func allow([]database.EnrolledRecord) (bool, error) { return true, nil }

func TestIdentityRepository_Integration(t *testing.T) {
	repo, cleanup := setupTestContainer(t)
	if repo == nil {
		return
	}
	defer cleanup()

	ctx := context.Background()
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("EnrollAndGet", func(t *testing.T) {
		ok, err := repo.Enroll(ctx, newRecord("Novák", descriptor(0.1), base), allow)
		if err != nil || !ok {
			t.Fatalf("Enroll() = %v, %v", ok, err)
		}

		rec, err := repo.Get(ctx, "Novák")
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}
		if rec == nil || len(rec.Descriptor) != 128 || rec.Descriptor[5] != 0.1 {
			t.Fatalf("unexpected record: %+v", rec)
		}
		if !rec.CreatedAt.Equal(base) {
			t.Errorf("CreatedAt = %v, want %v", rec.CreatedAt, base)
		}
	})

	t.Run("NamesAreCaseSensitive", func(t *testing.T) {
		rec, err := repo.Get(ctx, "novák")
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}
		if rec != nil {
			t.Errorf("expected no match for different case, got %+v", rec)
		}
	})

	t.Run("DuplicateNameBackstop", func(t *testing.T) {
		_, err := repo.Enroll(ctx, newRecord("Novák", descriptor(0.9), base), allow)
		if !errors.Is(err, database.ErrNameTaken) {
			t.Errorf("expected ErrNameTaken, got %v", err)
		}
	})

	t.Run("TouchAndDelete", func(t *testing.T) {
		at := base.Add(time.Hour)
		if err := repo.Touch(ctx, "Novák", at); err != nil {
			t.Fatalf("Touch() error = %v", err)
		}
		rec, _ := repo.Get(ctx, "Novák")
		if rec.AccessCount != 2 || !rec.LastAccessAt.Equal(at) {
			t.Errorf("unexpected access data: %+v", rec)
		}

		if err := repo.Delete(ctx, "Novák"); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if err := repo.Delete(ctx, "Novák"); !errors.Is(err, database.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ConcurrentDuplicateFaces", func(t *testing.T) {
		matcher, err := facematch.New(0.45)
		if err != nil {
			t.Fatalf("facematch.New() error = %v", err)
		}

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			accepted int
		)
		for i := range 6 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				name := uuid.NewString()
				query := facematch.Descriptor(descriptor(0.5))
				ok, err := repo.Enroll(ctx, newRecord(name, query, base.Add(time.Duration(i)*time.Second)), func(snapshot []database.EnrolledRecord) (bool, error) {
					res, err := matcher.RegisterCheck(name, query, snapshot)
					if err != nil {
						return false, err
					}
					return res.Outcome == facematch.OutcomeAccepted, nil
				})
				if err != nil {
					t.Errorf("Enroll() error = %v", err)
					return
				}
				if ok {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if accepted != 1 {
			t.Errorf("expected exactly one accepted enrollment, got %d", accepted)
		}
	})
}
