package cart

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"

	"go.uber.org/zap"

	domcart "example.com/framed-prints/internal/domain/cart"
	domcatalog "example.com/framed-prints/internal/domain/catalog"
	"example.com/framed-prints/internal/domain/pricing"
	"example.com/framed-prints/pkg/broadcast"
	"example.com/framed-prints/pkg/logger"
)

// State is what readers observe: the current lines and the totals derived
// from exactly those lines.
type State struct {
	Lines   []domcart.Line
	Totals  domcart.Totals
	Version uint64
}

type AddRequest struct {
	PhotoID    string
	ImageURL   string
	ImageTitle string
	Frame      pricing.Frame
	Size       pricing.Size
	Quantity   int64
}

// Service owns the cart. Every mutation and every reload runs under mu, so a
// read-modify-write of a line never interleaves with another one, and the
// local view only changes after the repository has acknowledged the write.
type Service struct {
	repo domcart.Repository
	log  *zap.Logger

	mu      sync.Mutex
	lines   []domcart.Line
	version uint64

	selMu     sync.Mutex
	selection domcart.Selection

	state *broadcast.Hub[State]
}

func NewService(repo domcart.Repository, log *zap.Logger) *Service {
	return &Service{
		repo:  repo,
		log:   logger.OrNop(log).Named("cart"),
		state: broadcast.NewHubWith(State{Lines: []domcart.Line{}}),
	}
}

// Start loads the persisted cart and keeps the local view in sync with the
// repository until ctx is done.
func (s *Service) Start(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		return err
	}

	updates, err := s.repo.Observe(ctx)
	if err != nil {
		return s.fail("observe", err)
	}

	go s.watch(updates)
	return nil
}

func (s *Service) watch(updates <-chan []domcart.Line) {
	for lines := range updates {
		s.mu.Lock()
		// A write may have landed while we waited for the lock; its
		// notification is already queued and supersedes this one.
		lines = newest(updates, lines)
		s.reloadLocked(lines)
		s.mu.Unlock()
	}
	s.log.Debug("repository feed closed")
}

func newest(updates <-chan []domcart.Line, lines []domcart.Line) []domcart.Line {
	for {
		select {
		case next, ok := <-updates:
			if !ok {
				return lines
			}
			lines = next
		default:
			return lines
		}
	}
}

func (s *Service) AddToBasket(ctx context.Context, req AddRequest) (domcart.Line, error) {
	if req.PhotoID == "" {
		return domcart.Line{}, domcart.ErrInvalidLine
	}
	if req.Quantity > domcart.MaxQuantity {
		return domcart.Line{}, domcart.ErrInvalidQuantity
	}
	qty := max(req.Quantity, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	key := domcart.Identity{PhotoID: req.PhotoID, Frame: req.Frame, Size: req.Size}
	if existing, ok := domcart.FindByIdentity(s.lines, key); ok {
		merged := existing
		merged.Quantity += qty
		if merged.Quantity > domcart.MaxQuantity {
			return domcart.Line{}, domcart.ErrInvalidQuantity
		}
		if err := s.repo.Update(ctx, merged); err != nil {
			return domcart.Line{}, s.fail("add to basket", err)
		}
		s.replaceLocked(merged)
		s.publishLocked()
		return merged, nil
	}

	saved, err := s.repo.Insert(ctx, domcart.Line{
		PhotoID:    req.PhotoID,
		ImageURL:   req.ImageURL,
		ImageTitle: req.ImageTitle,
		Frame:      req.Frame,
		Size:       req.Size,
		UnitPrice:  pricing.UnitPrice(req.Frame, req.Size),
		Quantity:   qty,
	})
	if err != nil {
		return domcart.Line{}, s.fail("add to basket", err)
	}
	s.lines = append(s.lines, saved)
	s.publishLocked()
	return saved, nil
}

func (s *Service) Increase(ctx context.Context, lineID int64) (domcart.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := domcart.FindByID(s.lines, lineID)
	if !ok {
		return domcart.Line{}, domcart.ErrLineNotFound
	}
	if line.Quantity >= domcart.MaxQuantity {
		return domcart.Line{}, domcart.ErrInvalidQuantity
	}
	line.Quantity++
	if err := s.repo.Update(ctx, line); err != nil {
		return domcart.Line{}, s.fail("increase", err)
	}
	s.replaceLocked(line)
	s.publishLocked()
	return line, nil
}

// Decrease lowers the quantity by one. A line at quantity 1 is removed; the
// returned line then has quantity 0.
func (s *Service) Decrease(ctx context.Context, lineID int64) (domcart.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := domcart.FindByID(s.lines, lineID)
	if !ok {
		return domcart.Line{}, domcart.ErrLineNotFound
	}

	if line.Quantity > 1 {
		line.Quantity--
		if err := s.repo.Update(ctx, line); err != nil {
			return domcart.Line{}, s.fail("decrease", err)
		}
		s.replaceLocked(line)
		s.publishLocked()
		return line, nil
	}

	if err := s.repo.Remove(ctx, line); err != nil {
		return domcart.Line{}, s.fail("decrease", err)
	}
	s.dropLocked(line.ID)
	s.publishLocked()
	line.Quantity = 0
	return line, nil
}

func (s *Service) Remove(ctx context.Context, lineID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	line, ok := domcart.FindByID(s.lines, lineID)
	if !ok {
		return domcart.ErrLineNotFound
	}
	if err := s.repo.Remove(ctx, line); err != nil {
		return s.fail("remove", err)
	}
	s.dropLocked(line.ID)
	s.publishLocked()
	return nil
}

func (s *Service) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Clear(ctx); err != nil {
		return s.fail("clear", err)
	}
	s.lines = nil
	s.publishLocked()
	return nil
}

// Reload replaces the local view with lines read from the store.
func (s *Service) Reload(lines []domcart.Line) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reloadLocked(lines)
}

// Refresh reads the store and reloads from it. It is the recovery path after a
// storage failure.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines, err := s.repo.List(ctx)
	if err != nil {
		return s.fail("refresh", err)
	}
	s.reloadLocked(lines)
	return nil
}

func (s *Service) State() State {
	st, _ := s.state.Current()
	return st
}

func (s *Service) Subscribe(ctx context.Context) <-chan State {
	return s.state.Subscribe(ctx)
}

func (s *Service) OpenPhoto(photo domcatalog.Photo) domcart.Selection {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	s.selection = domcart.NewSelection(strconv.FormatInt(photo.ID, 10), photo.URL, photo.Title)
	return s.selection
}

func (s *Service) SetFrame(frame pricing.Frame) (domcart.Selection, error) {
	if !frame.IsValid() {
		return domcart.Selection{}, pricing.ErrUnknownFrame
	}
	return s.editSelection(func(sel *domcart.Selection) { sel.Frame = frame })
}

func (s *Service) SetSize(size pricing.Size) (domcart.Selection, error) {
	if !size.IsValid() {
		return domcart.Selection{}, pricing.ErrUnknownSize
	}
	return s.editSelection(func(sel *domcart.Selection) { sel.Size = size })
}

// SetQuantity sets the pending quantity; values below 1 are stored as 1.
func (s *Service) SetQuantity(qty int64) (domcart.Selection, error) {
	if qty > domcart.MaxQuantity {
		return domcart.Selection{}, domcart.ErrInvalidQuantity
	}
	return s.editSelection(func(sel *domcart.Selection) { sel.Quantity = max(qty, 1) })
}

func (s *Service) Selection() domcart.Selection {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	return s.selection
}

func (s *Service) AddSelection(ctx context.Context) (domcart.Line, error) {
	sel := s.Selection()
	if !sel.IsOpen() {
		return domcart.Line{}, domcart.ErrNoSelection
	}
	return s.AddToBasket(ctx, AddRequest{
		PhotoID:    sel.PhotoID,
		ImageURL:   sel.ImageURL,
		ImageTitle: sel.ImageTitle,
		Frame:      sel.Frame,
		Size:       sel.Size,
		Quantity:   sel.Quantity,
	})
}

func (s *Service) editSelection(edit func(*domcart.Selection)) (domcart.Selection, error) {
	s.selMu.Lock()
	defer s.selMu.Unlock()
	if !s.selection.IsOpen() {
		return domcart.Selection{}, domcart.ErrNoSelection
	}
	edit(&s.selection)
	return s.selection, nil
}

func (s *Service) reloadLocked(lines []domcart.Line) State {
	if s.version > 0 && slices.Equal(s.lines, lines) {
		st, _ := s.state.Current()
		return st
	}
	s.lines = domcart.Clone(lines)
	return s.publishLocked()
}

func (s *Service) replaceLocked(line domcart.Line) {
	for i := range s.lines {
		if s.lines[i].ID == line.ID {
			s.lines[i] = line
			return
		}
	}
}

func (s *Service) dropLocked(id int64) {
	for i := range s.lines {
		if s.lines[i].ID == id {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			return
		}
	}
}

func (s *Service) publishLocked() State {
	s.version++
	st := State{
		Lines:   domcart.Clone(s.lines),
		Totals:  domcart.ComputeTotals(s.lines),
		Version: s.version,
	}
	s.state.Publish(st)
	return st
}

func (s *Service) fail(op string, err error) error {
	switch {
	case errors.Is(err, domcart.ErrInvalidQuantity), errors.Is(err, domcart.ErrInvalidLine):
	case errors.Is(err, domcart.ErrStorage):
	default:
		err = domcart.NewStorageError(op, err)
	}
	s.log.Warn("cart operation failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}
