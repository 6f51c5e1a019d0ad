package sqlstore

import (
	"context"
	"database/sql"
	"sync"

	"go.uber.org/zap"

	domcart "example.com/framed-prints/internal/domain/cart"
	"example.com/framed-prints/internal/domain/pricing"
	"example.com/framed-prints/pkg/broadcast"
	"example.com/framed-prints/pkg/logger"
)

type CartLineRepository struct {
	db  *sql.DB
	log *zap.Logger

	// mu keeps feed order identical to commit order.
	mu   sync.Mutex
	feed *broadcast.Hub[[]domcart.Line]
}

func NewCartLineRepository(db *sql.DB, log *zap.Logger) *CartLineRepository {
	return &CartLineRepository{
		db:   db,
		log:  logger.OrNop(log).Named("sqlstore"),
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

	res, err := r.db.ExecContext(ctx, `
        INSERT INTO cart_line (photo_id, image_url, image_title, frame_type, image_size, unit_price, quantity)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, line.PhotoID, line.ImageURL, line.ImageTitle, string(line.Frame), string(line.Size), line.UnitPrice, line.Quantity)
	if err != nil {
		return domcart.Line{}, domcart.NewStorageError("insert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domcart.Line{}, domcart.NewStorageError("insert", err)
	}
	line.ID = id

	r.publishLocked(ctx)
	return line, nil
}

func (r *CartLineRepository) Update(ctx context.Context, line domcart.Line) error {
	if err := line.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
        UPDATE cart_line
        SET photo_id = ?, image_url = ?, image_title = ?, frame_type = ?, image_size = ?, unit_price = ?, quantity = ?
        WHERE id = ?
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

	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_line WHERE id = ?`, line.ID); err != nil {
		return domcart.NewStorageError("remove", err)
	}

	r.publishLocked(ctx)
	return nil
}

func (r *CartLineRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_line`); err != nil {
		return domcart.NewStorageError("clear", err)
	}

	r.publishLocked(ctx)
	return nil
}

func (r *CartLineRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cart_line`).Scan(&n); err != nil {
		return 0, domcart.NewStorageError("count", err)
	}
	return n, nil
}

// Close ends every Observe subscription.
func (r *CartLineRepository) Close() {
	r.feed.Close()
}

func (r *CartLineRepository) publishLocked(ctx context.Context) {
	lines, err := r.list(ctx)
	if err != nil {
		// The write is committed; subscribers catch up on the next change.
		r.log.Warn("reload after write failed", zap.Error(err))
		return
	}
	r.feed.Publish(lines)
}

func (r *CartLineRepository) list(ctx context.Context) ([]domcart.Line, error) {
	rows, err := r.db.QueryContext(ctx, `
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
