package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domcart "example.com/framed-prints/internal/domain/cart"
	domorder "example.com/framed-prints/internal/domain/order"
	"example.com/framed-prints/pkg/logger"
)

type CartLines interface {
	List(ctx context.Context) ([]domcart.Line, error)
}

type Mailer interface {
	Send(ctx context.Context, msg domorder.Message) error
}

type Options struct {
	Sender    string
	Recipient string
}

type Service struct {
	cart   CartLines
	mailer Mailer
	opts   Options
	log    *zap.Logger

	now    func() time.Time
	newRef func() string
}

func NewService(cart CartLines, mailer Mailer, opts Options, log *zap.Logger) *Service {
	return &Service{
		cart:   cart,
		mailer: mailer,
		opts:   opts,
		log:    logger.OrNop(log).Named("order"),
		now:    time.Now,
		newRef: uuid.NewString,
	}
}

// Submit mails a summary of the persisted cart to the order recipient. The
// cart itself is left untouched.
func (s *Service) Submit(ctx context.Context) (*domorder.Summary, error) {
	if s.opts.Recipient == "" {
		return nil, domorder.ErrInvalidRecipient
	}

	lines, err := s.cart.List(ctx)
	if err != nil {
		return nil, err
	}

	summary, err := domorder.Compose(s.newRef(), s.now(), lines)
	if err != nil {
		return nil, err
	}

	if err := s.mailer.Send(ctx, summary.Message(s.opts.Sender, s.opts.Recipient)); err != nil {
		if errors.Is(err, domorder.ErrInvalidRecipient) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domorder.ErrDelivery, err)
	}

	s.log.Info("order submitted",
		zap.String("reference", summary.Reference),
		zap.Int64("prints", summary.TotalQuantity),
		zap.Int64("price", summary.TotalPrice))
	return summary, nil
}
