package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	domsession "example.com/framed-prints/internal/domain/session"
)

type Claims struct {
	SessionID string
	DeviceID  string
}

type TokenService interface {
	GenerateToken(s domsession.Session) (string, error)
	ParseToken(token string) (*Claims, error)
}

type Service struct {
	tokens TokenService
	ttl    time.Duration
	now    func() time.Time
}

func NewService(tokens TokenService, ttl time.Duration) *Service {
	return &Service{
		tokens: tokens,
		ttl:    ttl,
		now:    time.Now,
	}
}

type StartInput struct {
	DeviceID string
}

type StartResult struct {
	Token   string
	Session domsession.Session
}

// Start opens a session for a device. Every call yields a fresh session id.
func (s *Service) Start(ctx context.Context, in StartInput) (*StartResult, error) {
	deviceID, err := domsession.NormalizeDeviceID(in.DeviceID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Second)
	sess := domsession.Session{
		ID:        uuid.NewString(),
		DeviceID:  deviceID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	token, err := s.tokens.GenerateToken(sess)
	if err != nil {
		return nil, err
	}

	return &StartResult{
		Token:   token,
		Session: sess,
	}, nil
}

func (s *Service) Authenticate(token string) (*Claims, error) {
	if token == "" {
		return nil, domsession.ErrUnauthorized
	}
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		return nil, domsession.ErrUnauthorized
	}
	return claims, nil
}
