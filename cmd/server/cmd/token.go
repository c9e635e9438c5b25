package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jrsteele09/setlist-gate/token"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Session token diagnostics",
}

var tokenVerifyCmd = &cobra.Command{
	Use:   "verify <token|->",
	Short: "Verify a session token against the configured secret",
	Long: `Verifies a session token exactly as the gate does but reports the precise
reason on failure (malformed, signature_invalid, expired, not_yet_valid,
claims_invalid). Pass "-" to read the token from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw := args[0]
		if raw == "-" {
			in, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read token: %w", err)
			}
			raw = string(in)
		}
		return verifyToken(cmd.OutOrStdout(), strings.TrimSpace(raw))
	},
}

func init() {
	tokenCmd.AddCommand(tokenVerifyCmd)
}

type verifiedToken struct {
	UserID    string         `json:"userId"`
	IssuedAt  *time.Time     `json:"issuedAt,omitempty"`
	ExpiresAt time.Time      `json:"expiresAt"`
	NotBefore *time.Time     `json:"notBefore,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

func verifyToken(out io.Writer, raw string) error {
	codec, err := newCodec(cfg)
	if err != nil {
		return err
	}
	claims, err := codec.VerifyAndDecode(raw, cfg.GetJWTSecret())
	if err != nil {
		return fmt.Errorf("token rejected (%s, fingerprint %s): %w", token.KindOf(err), token.Fingerprint(raw), err)
	}

	result := verifiedToken{
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt,
		Extra:     claims.Extra,
	}
	if !claims.IssuedAt.IsZero() {
		result.IssuedAt = &claims.IssuedAt
	}
	if !claims.NotBefore.IsZero() {
		result.NotBefore = &claims.NotBefore
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
