package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType discriminates the token kinds sharing the deployment secret.
type TokenType string

const (
	// TypeAccess marks a short-lived token proving full authentication.
	TypeAccess TokenType = "access"
	// TypeMFAPending marks a token issued after a successful password check
	// while a second factor is still outstanding.
	TypeMFAPending TokenType = "mfa"
)

// ErrInvalid is returned by [Codec.Verify] for every rejection: bad signature,
// malformed structure, wrong algorithm, or expired token. Callers cannot
// distinguish the cases.
var ErrInvalid = errors.New("invalid token")

const minSecretBytes = 32

// Claims is the fixed claim set carried by every engine-issued token.
type Claims struct {
	UID       string    `json:"uid"`
	TokenType TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// Config holds the signing secret and validation settings shared by all
// token kinds.
type Config struct {
	Secret []byte
	Issuer string
	Leeway time.Duration
}

// Codec signs and verifies claim tokens. Codec instances are immutable after
// construction and safe for concurrent use.
type Codec struct {
	config Config
}

// NewCodec validates the configuration and returns a ready Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) < minSecretBytes {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Codec{config: cfg}, nil
}

// Mint signs a token of the given kind for uid, expiring after ttl.
func (c *Codec) Mint(uid string, typ TokenType, ttl time.Duration) (string, error) {
	if uid == "" {
		return "", errors.New("empty uid")
	}
	if ttl <= 0 {
		return "", errors.New("non-positive ttl")
	}

	now := time.Now()
	claims := Claims{
		UID:       uid,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    c.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.config.Secret)
}

// Verify parses and validates raw. Signature, structure, algorithm, and expiry
// failures all surface as [ErrInvalid]. Verify does NOT check the token kind;
// callers inspect [Claims.TokenType].
func (c *Codec) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalid
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if c.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(c.config.Leeway))
	}
	if c.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(c.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return c.config.Secret, nil
	})
	if err != nil {
		return nil, ErrInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalid
	}
	if claims.UID == "" {
		return nil, ErrInvalid
	}

	return claims, nil
}
