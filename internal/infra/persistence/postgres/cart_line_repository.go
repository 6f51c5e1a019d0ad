package postgres

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	domcart "example.com/framed-prints/internal/domain/cart"
	"example.com/framed-prints/internal/domain/pricing"
	"example.com/framed-prints/pkg/broadcast"
	"example.com/framed-prints/pkg/logger"
)

// ChangeChannel is the NOTIFY channel raised by the cart_line trigger.
const ChangeChannel = "cart_line_changed"

const listenRetryDelay = time.Second

// CartLineRepository stores cart lines in PostgreSQL. Writes from other
// processes reach Observe subscribers once Listen is running.
type CartLineRepository struct {
	pool *pgxpool.Pool
	log  *zap.Logger

	mu   sync.Mutex
	feed *broadcast.Hub[[]domcart.Line]
}

func NewCartLineRepository(pool *pgxpool.Pool, log *zap.Logger) *CartLineRepository {
	return &CartLineRepository{
		pool: pool,
		log:  logger.OrNop(log).Named("postgres"),
		feed: broadcast.NewHub[[]domcart.Line](),
	}
}

func (r *CartLineRepository) Observe(ctx context.Context) (<-chan []domcart.Line, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.feed.Current(); !ok {
		lines, err := r.list(ctx)
		if err != nil {
			return nil, domcart.NewStorageError("observe", err)
		}
		r.feed.Publish(lines)
	}
	return r.feed.Subscribe(ctx), nil
}

func (r *CartLineRepository) List(ctx context.Context) ([]domcart.Line, error) {
	lines, err := r.list(ctx)
	if err != nil {
		return nil, domcart.NewStorageError("list", err)
	}
	return lines, nil
}

func (r *CartLineRepository) Insert(ctx context.Context, line domcart.Line) (domcart.Line, error) {
	if err := line.Validate(); err != nil {
		return domcart.Line{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err := r.pool.QueryRow(ctx, `
        INSERT INTO cart_line (photo_id, image_url, image_title, frame_type, image_size, unit_price, quantity)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `, line.PhotoID, line.ImageURL, line.ImageTitle, string(line.Frame), string(line.Size), line.UnitPrice, line.Quantity).Scan(&line.ID)
	if err != nil {
		return domcart.Line{}, domcart.NewStorageError("insert", err)
	}

	r.publishLocked(ctx)
	return line, nil
}

func (r *CartLineRepository) Update(ctx context.Context, line domcart.Line) error {
	if err := line.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.pool.Exec(ctx, `
        UPDATE cart_line
        SET photo_id = $1, image_url = $2, image_title = $3, frame_type = $4, image_size = $5, unit_price = $6, quantity = $7
        WHERE id = $8
    `, line.PhotoID, line.ImageURL, line.ImageTitle, string(line.Frame), string(line.Size), line.UnitPrice, line.Quantity, line.ID)
	if err != nil {
		return domcart.NewStorageError("update", err)
	}

	r.publishLocked(ctx)
	return nil
}

func (r *CartLineRepository) Remove(ctx context.Context, line domcart.Line) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_line WHERE id = $1`, line.ID); err != nil {
		return domcart.NewStorageError("remove", err)
	}

	r.publishLocked(ctx)
	return nil
}

func (r *CartLineRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.pool.Exec(ctx, `DELETE FROM cart_line`); err != nil {
		return domcart.NewStorageError("clear", err)
	}

	r.publishLocked(ctx)
	return nil
}

func (r *CartLineRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cart_line`).Scan(&n); err != nil {
		return 0, domcart.NewStorageError("count", err)
	}
	return n, nil
}

// Listen blocks until ctx ends, republishing the line set whenever the
// cart_line trigger fires. Lost connections are re-established.
func (r *CartLineRepository) Listen(ctx context.Context) error {
	for {
		err := r.listenOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.log.Warn("change listener interrupted", zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(listenRetryDelay):
		}
	}
}

func (r *CartLineRepository) listenOnce(ctx context.Context) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{ChangeChannel}.Sanitize()); err != nil {
		return err
	}
	// Changes made while the listener was down are picked up here.
	r.refresh(ctx)

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}
		r.log.Debug("cart_line changed", zap.String("op", n.Payload), zap.Uint32("pid", n.PID))
		r.refresh(ctx)
	}
}

func (r *CartLineRepository) refresh(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishLocked(ctx)
}

// Close ends every Observe subscription. The pool is owned by the caller.
func (r *CartLineRepository) Close() {
	r.feed.Close()
}

func (r *CartLineRepository) publishLocked(ctx context.Context) {
	lines, err := r.list(ctx)
	if err != nil {
		r.log.Warn("reload after write failed", zap.Error(err))
		return
	}
	r.feed.Publish(lines)
}

func (r *CartLineRepository) list(ctx context.Context) ([]domcart.Line, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, photo_id, image_url, image_title, frame_type, image_size, unit_price, quantity
        FROM cart_line
        ORDER BY id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := []domcart.Line{}
	for rows.Next() {
		var (
			l     domcart.Line
			frame string
			size  string
		)
		if err := rows.Scan(&l.ID, &l.PhotoID, &l.ImageURL, &l.ImageTitle, &frame, &size, &l.UnitPrice, &l.Quantity); err != nil {
			return nil, err
		}
		l.Frame = pricing.Frame(frame)
		l.Size = pricing.Size(size)
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
