package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	domcart "example.com/framed-prints/internal/domain/cart"
	"example.com/framed-prints/internal/domain/pricing"
)

func setupTestRepository(t *testing.T) *CartLineRepository {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(pool))

	repo := NewCartLineRepository(pool, nil)
	t.Cleanup(repo.Close)
	return repo
}

func goldLarge(photoID string, qty int64) domcart.Line {
	return domcart.Line{
		PhotoID:    photoID,
		ImageURL:   "https://via.placeholder.com/600/" + photoID,
		ImageTitle: "title " + photoID,
		Frame:      pricing.FrameGold,
		Size:       pricing.SizeLarge,
		UnitPrice:  pricing.UnitPrice(pricing.FrameGold, pricing.SizeLarge),
		Quantity:   qty,
	}
}

func TestCartLineRepository_CRUD(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	line, err := repo.Insert(ctx, goldLarge("7", 1))
	require.NoError(t, err)
	require.NotZero(t, line.ID)

	line.Quantity = 3
	require.NoError(t, repo.Update(ctx, line))

	lines, err := repo.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []domcart.Line{line}, lines)

	_, err = repo.Insert(ctx, goldLarge("8", 0))
	require.ErrorIs(t, err, domcart.ErrInvalidQuantity)

	require.NoError(t, repo.Remove(ctx, line))
	require.NoError(t, repo.Remove(ctx, line))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	require.NoError(t, repo.Clear(ctx))
}

func TestCartLineRepository_ListenPicksUpForeignWrites(t *testing.T) {
	repo := setupTestRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = repo.Listen(ctx) }()

	feed, err := repo.Observe(ctx)
	require.NoError(t, err)
	require.Empty(t, <-feed)

	// A write that bypasses the repository, as another process would do.
	_, err = repo.pool.Exec(ctx, `
        INSERT INTO cart_line (photo_id, image_url, image_title, frame_type, image_size, unit_price, quantity)
        VALUES ('42', 'u', 't', 'WOOD', 'SMALL', 100, 2)
    `)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		select {
		case lines := <-feed:
			return len(lines) == 1 && lines[0].PhotoID == "42" && lines[0].Quantity == 2
		default:
			return false
		}
	}, 10*time.Second, 20*time.Millisecond)
}
