package middleware

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/crazygit/ewerobot/pkg/utils"
)

// StateSigner issues and validates the OAuth anti-forgery state parameter.
// WeChat caps state at 128 bytes, so the claims use single-letter names to
// keep the compact JWS under the limit.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewStateSigner creates a signer. States expire after ttl; the whole
// authorize round-trip normally takes seconds, so a few minutes is plenty.
func NewStateSigner(secret string, ttl time.Duration) *StateSigner {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &StateSigner{secret: []byte(secret), ttl: ttl}
}

type stateClaims struct {
	Nonce string `json:"j"`
	Exp   int64  `json:"e"`
}

func (c stateClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.Exp, 0)), nil
}
func (c stateClaims) GetIssuedAt() (*jwt.NumericDate, error)  { return nil, nil }
func (c stateClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c stateClaims) GetIssuer() (string, error)              { return "", nil }
func (c stateClaims) GetSubject() (string, error)             { return "", nil }
func (c stateClaims) GetAudience() (jwt.ClaimStrings, error)  { return nil, nil }

// Sign issues a fresh state value
func (s *StateSigner) Sign() (string, error) {
	claims := stateClaims{
		Nonce: utils.RandomString(8, true),
		Exp:   time.Now().Add(s.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate checks a state returned on the callback leg
func (s *StateSigner) Validate(state string) error {
	token, err := jwt.ParseWithClaims(state, &stateClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid state")
	}
	return nil
}
