package security

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	domsession "example.com/framed-prints/internal/domain/session"
	authuc "example.com/framed-prints/internal/usecase/auth"
)

const issuer = "framed-prints"

type JWTService struct {
	secret []byte
}

func NewJWTService(secret string) *JWTService {
	return &JWTService{
		secret: []byte(secret),
	}
}

type jwtClaims struct {
	DeviceID string `json:"did"`
	jwt.RegisteredClaims
}

func (s *JWTService) GenerateToken(sess domsession.Session) (string, error) {
	claims := jwtClaims{
		DeviceID: sess.DeviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(sess.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *JWTService) ParseToken(token string) (*authuc.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwtClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.ID == "" || claims.DeviceID == "" {
		return nil, fmt.Errorf("token without session: %w", jwt.ErrTokenInvalidClaims)
	}

	return &authuc.Claims{
		SessionID: claims.ID,
		DeviceID:  claims.DeviceID,
	}, nil
}
