package token

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultUserIDClaim names the claim carrying the principal.
	DefaultUserIDClaim = "userId"
	// DefaultClockSkew is the tolerance applied to iat and nbf.
	DefaultClockSkew = 30 * time.Second

	fingerprintLength = 12
)

var registeredClaims = map[string]struct{}{
	"iss": {}, "sub": {}, "aud": {}, "exp": {}, "nbf": {}, "iat": {}, "jti": {},
}

// Claims holds the verified payload of a session token.
type Claims struct {
	UserID    string
	IssuedAt  time.Time // zero when the token carries no iat
	ExpiresAt time.Time
	NotBefore time.Time // zero when the token carries no nbf
	Extra     map[string]any
}

// Codec verifies session tokens. It holds no mutable state and is safe for
// concurrent use.
type Codec struct {
	method      *jwt.SigningMethodHMAC
	clockSkew   time.Duration
	userIDClaim string
	nowTime     func() time.Time
}

// CodecOption modifies a Codec.
type CodecOption func(*Codec)

// WithAlgorithm sets the only HMAC algorithm the codec accepts.
func WithAlgorithm(method *jwt.SigningMethodHMAC) CodecOption {
	return func(c *Codec) {
		if method != nil {
			c.method = method
		}
	}
}

// WithClockSkew sets how far in the future iat and nbf may be.
func WithClockSkew(skew time.Duration) CodecOption {
	return func(c *Codec) {
		if skew >= 0 {
			c.clockSkew = skew
		}
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) CodecOption {
	return func(c *Codec) {
		if nowFunc != nil {
			c.nowTime = nowFunc
		}
	}
}

// WithUserIDClaim changes the claim the principal is read from.
func WithUserIDClaim(name string) CodecOption {
	return func(c *Codec) {
		if name != "" {
			c.userIDClaim = name
		}
	}
}

// NewCodec returns a Codec expecting HS256 tokens unless configured otherwise.
func NewCodec(options ...CodecOption) *Codec {
	c := &Codec{
		method:      jwt.SigningMethodHS256,
		clockSkew:   DefaultClockSkew,
		userIDClaim: DefaultUserIDClaim,
		nowTime:     time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Algorithm returns the JWS alg the codec accepts.
func (c *Codec) Algorithm() string {
	return c.method.Alg()
}

// VerifyAndDecode checks the signature, algorithm, validity window and
// principal of rawToken. Every failure is a *VerificationError except a
// missing secret, which is ErrSecretRequired.
func (c *Codec) VerifyAndDecode(rawToken, secret string) (*Claims, error) {
	if secret == "" {
		return nil, ErrSecretRequired
	}
	if strings.TrimSpace(rawToken) == "" {
		return nil, verificationErr(KindMalformed, errors.New("empty token"))
	}

	signer := NewHMACSigner(secret, WithSigningMethod(c.method))

	// Temporal claims are checked below so exp and iat get distinct kinds and
	// exactly the boundaries we want.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{signer.GetSigningMethod().Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	parsed, err := parser.ParseWithClaims(rawToken, jwt.MapClaims{}, signer.GetVerificationKey)
	if err != nil {
		return nil, classifyParseError(err)
	}
	if !parsed.Valid {
		return nil, verificationErr(KindSignatureInvalid, errors.New("token not valid"))
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, verificationErr(KindMalformed, errors.New("error extracting claims from token"))
	}

	claims, verr := c.validate(mapClaims, c.nowTime())
	if verr != nil {
		return nil, verr
	}
	return claims, nil
}

func (c *Codec) validate(mapClaims jwt.MapClaims, now time.Time) (*Claims, error) {
	exp, err := mapClaims.GetExpirationTime()
	if err != nil {
		return nil, verificationErr(KindClaimsInvalid, err)
	}
	if exp == nil {
		return nil, verificationErr(KindClaimsInvalid, errors.New("exp claim is required"))
	}
	if !now.Before(exp.Time) {
		return nil, verificationErr(KindExpired, errors.New("exp is not in the future"))
	}

	latest := now.Add(c.clockSkew)

	iat, err := mapClaims.GetIssuedAt()
	if err != nil {
		return nil, verificationErr(KindClaimsInvalid, err)
	}
	if iat != nil && iat.Time.After(latest) {
		return nil, verificationErr(KindNotYetValid, errors.New("iat is in the future"))
	}

	nbf, err := mapClaims.GetNotBefore()
	if err != nil {
		return nil, verificationErr(KindClaimsInvalid, err)
	}
	if nbf != nil && nbf.Time.After(latest) {
		return nil, verificationErr(KindNotYetValid, errors.New("nbf is in the future"))
	}

	rawUserID, ok := mapClaims[c.userIDClaim]
	if !ok {
		return nil, verificationErr(KindClaimsInvalid, errors.New(c.userIDClaim+" claim is required"))
	}
	userID, ok := rawUserID.(string)
	if !ok || userID == "" {
		return nil, verificationErr(KindClaimsInvalid, errors.New(c.userIDClaim+" claim must be a non-empty string"))
	}

	claims := &Claims{
		UserID:    userID,
		ExpiresAt: exp.Time,
		Extra:     make(map[string]any),
	}
	if iat != nil {
		claims.IssuedAt = iat.Time
	}
	if nbf != nil {
		claims.NotBefore = nbf.Time
	}
	for k, v := range mapClaims {
		if _, registered := registeredClaims[k]; registered || k == c.userIDClaim {
			continue
		}
		claims.Extra[k] = v
	}
	return claims, nil
}

func classifyParseError(err error) *VerificationError {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return verificationErr(KindMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return verificationErr(KindSignatureInvalid, err)
	default:
		return verificationErr(KindMalformed, err)
	}
}

// Fingerprint returns a short, non-reversible identifier for rawToken that is
// safe to log.
func Fingerprint(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return hex.EncodeToString(sum[:])[:fingerprintLength]
}
