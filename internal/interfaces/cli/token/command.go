// Package token mints development JWTs for exercising the API locally.
package token

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/trellis-inc/trellis/internal/infrastructure/auth"
	"github.com/trellis-inc/trellis/internal/infrastructure/config"
	"github.com/trellis-inc/trellis/internal/shared/authorization"
)

var (
	env        string
	partnerID  uint
	partnerSID string
	role       string
	ttl        time.Duration
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Generate a development JWT",
		Long:  `Generate a signed JWT for local development. Production tokens are issued by the identity service.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", "development", "Environment (development, test, production)")
	cmd.Flags().UintVar(&partnerID, "partner-id", 0, "Partner ID to embed in the token")
	cmd.Flags().StringVar(&partnerSID, "partner-sid", "", "Partner SID to embed in the token")
	cmd.Flags().StringVar(&role, "role", "partner", "Role claim (admin or partner)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	if envVar := os.Getenv("ENV"); envVar != "" {
		env = envVar
	}

	r := authorization.ParseRole(role)
	if !r.IsValid() {
		return fmt.Errorf("invalid role %q", role)
	}
	if r == authorization.RolePartner && partnerID == 0 {
		return fmt.Errorf("--partner-id is required for partner tokens")
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	signed, err := auth.NewJWTService(cfg.Auth.JWT.Secret).Generate(partnerID, partnerSID, r, ttl)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	fmt.Println(signed)
	return nil
}
