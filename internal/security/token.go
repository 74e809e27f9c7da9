package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

var ErrInvalidToken = errors.New("invalid identity token")

// GuestSigner подписывает гостевую identity: sub = user id.
// Используется SigningMethodHS256 — секрет один, сервис один.
type GuestSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewGuestSigner(secret []byte, issuer string, ttl time.Duration) *GuestSigner {
	return &GuestSigner{secret: secret, issuer: issuer, ttl: ttl}
}

func (s *GuestSigner) TTL() time.Duration { return s.ttl }

type GuestClaims struct {
	jwt.StandardClaims
}

// Sign выпускает токен с sub=userID и exp=now+ttl.
func (s *GuestSigner) Sign(userID int64, now time.Time) (string, error) {
	claims := GuestClaims{
		StandardClaims: jwt.StandardClaims{
			Subject:   fmt.Sprint(userID),
			Issuer:    s.issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(s.secret)
}

// Parse валидирует токен и возвращает user id из sub.
func (s *GuestSigner) Parse(tokenStr string) (int64, error) {
	claims := &GuestClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, ErrInvalidToken
	}
	if !claims.VerifyIssuer(s.issuer, true) {
		return 0, ErrInvalidToken
	}

	var id int64
	if _, err := fmt.Sscan(claims.Subject, &id); err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}
