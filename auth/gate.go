package auth

import (
	"time"

	"github.com/jrsteele09/setlist-gate/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultCookieName is the cookie carrying the session token.
	DefaultCookieName = "auth_token"
	// DefaultRejectionLogWindow bounds how often one rejected token is logged.
	DefaultRejectionLogWindow = time.Minute
)

// RequestContext is the per-call view of an inbound request. UserID is empty
// until Authenticate succeeds.
type RequestContext struct {
	Cookies map[string]string
	Headers map[string]string
	UserID  string
}

// Gate authenticates requests before protected handlers run. It is immutable
// after New and safe for concurrent use.
type Gate struct {
	secret       string
	cookieName   string
	codec        *token.Codec
	logger       zerolog.Logger
	metrics      *Metrics
	rejectionLog *rejectionLog
}

// Option defines a function type to modify the Gate instance.
type Option func(*gateOptions)

type gateOptions struct {
	codec              *token.Codec
	cookieName         string
	logger             *zerolog.Logger
	metrics            *Metrics
	rejectionLogWindow time.Duration
}

// WithCodec replaces the default HS256 codec.
func WithCodec(codec *token.Codec) Option {
	return func(o *gateOptions) {
		o.codec = codec
	}
}

// WithCookieName changes the cookie the token is read from.
func WithCookieName(name string) Option {
	return func(o *gateOptions) {
		o.cookieName = name
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *gateOptions) {
		o.logger = &logger
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(o *gateOptions) {
		o.metrics = metrics
	}
}

// WithRejectionLogWindow sets how long a rejected token stays quiet in the
// logs after it was first reported. Zero logs every rejection.
func WithRejectionLogWindow(window time.Duration) Option {
	return func(o *gateOptions) {
		o.rejectionLogWindow = window
	}
}

// New builds a Gate for secret. An empty secret is accepted here so that the
// gate can still answer, but every Authenticate call then fails with
// ErrConfiguration.
func New(secret string, options ...Option) *Gate {
	opts := gateOptions{
		cookieName:         DefaultCookieName,
		rejectionLogWindow: DefaultRejectionLogWindow,
	}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.codec == nil {
		opts.codec = token.NewCodec()
	}
	if opts.cookieName == "" {
		opts.cookieName = DefaultCookieName
	}
	logger := log.Logger
	if opts.logger != nil {
		logger = *opts.logger
	}

	g := &Gate{
		secret:       secret,
		cookieName:   opts.cookieName,
		codec:        opts.codec,
		logger:       logger.With().Str("component", "auth_gate").Logger(),
		metrics:      opts.metrics,
		rejectionLog: newRejectionLog(opts.rejectionLogWindow),
	}
	if secret == "" {
		g.logger.Error().Msg("gate created without a signing secret, all requests will be rejected")
	}
	return g
}

// CookieName returns the cookie the gate reads.
func (g *Gate) CookieName() string {
	return g.cookieName
}

// Authenticate validates the session token in rc's cookies. On success it
// returns a copy of rc with UserID set; on failure it returns nil and one of
// ErrContextInvalid, ErrNotAuthenticated or ErrConfiguration. rc itself is
// never modified.
func (g *Gate) Authenticate(rc *RequestContext) (*RequestContext, error) {
	if rc == nil || rc.Cookies == nil {
		g.logger.Error().Msg("request context has no cookie store")
		g.metrics.observe(outcomeContextInvalid, reasonNone)
		return nil, ErrContextInvalid
	}

	rawToken := rc.Cookies[g.cookieName]
	if rawToken == "" {
		g.metrics.observe(outcomeRejected, reasonNoCookie)
		return nil, ErrNotAuthenticated
	}

	claims, err := g.verify(rawToken)
	if err != nil {
		return nil, err
	}

	authenticated := *rc
	authenticated.UserID = claims.UserID
	return &authenticated, nil
}

func (g *Gate) verify(rawToken string) (*token.Claims, error) {
	if g.secret == "" {
		g.logger.Error().Msg("signing secret is not configured")
		g.metrics.observe(outcomeMisconfigured, reasonNone)
		return nil, ErrConfiguration
	}

	claims, err := g.codec.VerifyAndDecode(rawToken, g.secret)
	if err != nil {
		if errors.Is(err, token.ErrSecretRequired) {
			g.metrics.observe(outcomeMisconfigured, reasonNone)
			return nil, ErrConfiguration
		}
		kind := token.KindOf(err)
		g.metrics.observe(outcomeRejected, kind.String())
		g.logRejection(kind, rawToken, err)
		return nil, ErrNotAuthenticated
	}

	g.metrics.observe(outcomeAuthenticated, reasonNone)
	return claims, nil
}

func (g *Gate) logRejection(kind token.Kind, rawToken string, err error) {
	fingerprint := token.Fingerprint(rawToken)
	if !g.rejectionLog.allow(kind.String() + ":" + fingerprint) {
		return
	}
	g.logger.Warn().
		Err(err).
		Str("kind", kind.String()).
		Str("token_fp", fingerprint).
		Msg("session token rejected")
}
