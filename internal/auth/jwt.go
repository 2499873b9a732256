package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"guestbook/internal/model"
)

const issuer = "guestbook"

var (
	ErrSecretNotSet = errors.New("JWT secret not set")
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Claims represents the session JWT payload
type Claims struct {
	Name     string `json:"name"`
	Image    string `json:"image,omitempty"`
	Provider string `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) TTL() time.Duration { return i.ttl }

// GenerateToken creates a signed JWT for the given identity
func (i *Issuer) GenerateToken(id model.Identity, provider string) (string, model.Session, error) {
	if len(i.secret) == 0 {
		return "", model.Session{}, ErrSecretNotSet
	}

	now := i.now()
	exp := now.Add(i.ttl)
	claims := Claims{
		Name:     id.Name,
		Image:    id.Image,
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.Name,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", model.Session{}, err
	}
	return signed, model.Session{User: id, Provider: provider, ExpiresAt: exp.UTC().Truncate(time.Second)}, nil
}

// ValidateToken parses and verifies a JWT string
func (i *Issuer) ValidateToken(tokenStr string) (*model.Session, error) {
	if len(i.secret) == 0 {
		return nil, ErrSecretNotSet
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Name == "" {
		return nil, ErrInvalidToken
	}

	s := &model.Session{
		User:     model.Identity{Name: claims.Name, Image: claims.Image},
		Provider: claims.Provider,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return s, nil
}
