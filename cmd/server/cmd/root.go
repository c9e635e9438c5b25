package cmd

import (
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/setlist-gate/internal/config"
	"github.com/jrsteele09/setlist-gate/internal/logging"
	"github.com/jrsteele09/setlist-gate/token"
	"github.com/spf13/cobra"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "setlist-gate",
	Short: "Authentication gate for the setlist API",
	Long: `setlist-gate verifies the auth_token session cookie on every API request
and attaches the caller's user id before protected handlers run.

JWT_SECRET must be set; the process refuses to start without it.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		logging.Setup(cfg.GetEnv(), cfg.GetLogLevel())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newCodec builds the token codec described by the configuration.
func newCodec(c config.SecurityConfig) (*token.Codec, error) {
	method, ok := jwt.GetSigningMethod(c.GetJWTAlgorithm()).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported JWT algorithm %q", c.GetJWTAlgorithm())
	}
	return token.NewCodec(
		token.WithAlgorithm(method),
		token.WithClockSkew(c.GetClockSkew()),
	), nil
}
