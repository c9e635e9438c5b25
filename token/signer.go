package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Signer signs session tokens and supplies the key used to verify them.
type Signer interface {
	// Sign creates a signed JWT token from claims
	Sign(claims jwt.MapClaims) (string, error)

	// GetVerificationKey is a jwt.Keyfunc returning the key for the parsed token
	GetVerificationKey(token *jwt.Token) (any, error)

	// GetSigningMethod returns the JWT signing method used
	GetSigningMethod() jwt.SigningMethod
}

// HMACSigner implements Signer using a shared secret.
type HMACSigner struct {
	secret []byte
	method *jwt.SigningMethodHMAC
}

var _ Signer = (*HMACSigner)(nil)

// HMACSignerOption modifies an HMACSigner.
type HMACSignerOption func(*HMACSigner)

// WithSigningMethod selects HS256, HS384 or HS512.
func WithSigningMethod(method *jwt.SigningMethodHMAC) HMACSignerOption {
	return func(h *HMACSigner) {
		if method != nil {
			h.method = method
		}
	}
}

// NewHMACSigner creates a new HMAC signer with the given secret. HS256 is used
// unless WithSigningMethod says otherwise.
func NewHMACSigner(secret string, options ...HMACSignerOption) *HMACSigner {
	h := &HMACSigner{
		secret: []byte(secret),
		method: jwt.SigningMethodHS256,
	}
	for _, opt := range options {
		opt(h)
	}
	return h
}

func (h *HMACSigner) Sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(h.method, claims)
	signedToken, err := token.SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signedToken, nil
}

// GetVerificationKey only hands out the secret for the exact HMAC variant this
// signer was built with.
func (h *HMACSigner) GetVerificationKey(token *jwt.Token) (any, error) {
	method, ok := token.Method.(*jwt.SigningMethodHMAC)
	if !ok || method.Alg() != h.method.Alg() {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.secret, nil
}

func (h *HMACSigner) GetSigningMethod() jwt.SigningMethod {
	return h.method
}
