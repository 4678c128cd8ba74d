package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager mints and validates the signed session credential issued on
// login. A single HMAC secret signs one bearer token carrying the account id
// and an expiry claim.
type JWTManager struct {
	Secret []byte
	TTL    time.Duration
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{Secret: []byte(secret), TTL: ttl}
}

type SessionClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Generate signs a session token for the given account id and returns the
// token plus its absolute expiry.
func (m *JWTManager) Generate(userID string) (string, time.Time, error) {
	exp := time.Now().Add(m.TTL)
	claims := &SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.Secret)
	return s, exp, err
}

// Parse validates signature and expiry and returns the embedded claims.
func (m *JWTManager) Parse(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
