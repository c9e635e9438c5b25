package token

import (
	"errors"
	"fmt"
)

// Kind classifies why a session token failed verification.
type Kind int

const (
	KindUnknown Kind = iota
	KindMalformed
	KindSignatureInvalid
	KindExpired
	KindNotYetValid
	KindClaimsInvalid
)

var (
	ErrMalformed        = errors.New("token malformed")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
	ErrNotYetValid      = errors.New("token not yet valid")
	ErrClaimsInvalid    = errors.New("token claims invalid")

	// ErrSecretRequired is returned when VerifyAndDecode is called without a
	// secret. Callers are expected to check configuration first.
	ErrSecretRequired = errors.New("signing secret is required")
)

var kindSentinels = map[Kind]error{
	KindMalformed:        ErrMalformed,
	KindSignatureInvalid: ErrSignatureInvalid,
	KindExpired:          ErrExpired,
	KindNotYetValid:      ErrNotYetValid,
	KindClaimsInvalid:    ErrClaimsInvalid,
}

func (k Kind) String() string {
	switch k {
	case KindMalformed:
		return "malformed"
	case KindSignatureInvalid:
		return "signature_invalid"
	case KindExpired:
		return "expired"
	case KindNotYetValid:
		return "not_yet_valid"
	case KindClaimsInvalid:
		return "claims_invalid"
	default:
		return "unknown"
	}
}

// VerificationError is the tagged error returned by Codec.VerifyAndDecode.
// errors.Is matches it against the sentinel for its Kind.
type VerificationError struct {
	Kind Kind
	Err  error
}

func (e *VerificationError) Error() string {
	sentinel, ok := kindSentinels[e.Kind]
	if !ok {
		sentinel = errors.New("token invalid")
	}
	if e.Err == nil {
		return sentinel.Error()
	}
	return fmt.Sprintf("%s: %v", sentinel, e.Err)
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

func (e *VerificationError) Is(target error) bool {
	sentinel, ok := kindSentinels[e.Kind]
	return ok && target == sentinel
}

// KindOf returns the verification kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var verr *VerificationError
	if errors.As(err, &verr) {
		return verr.Kind
	}
	return KindUnknown
}

func verificationErr(kind Kind, err error) *VerificationError {
	return &VerificationError{Kind: kind, Err: err}
}
