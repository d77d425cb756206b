package commands

import (
	"fmt"
	"time"

	"github.com/NeuralTrust/NewsGuard/pkg/infra/auth/jwt"
	"github.com/spf13/cobra"
)

func NewTokenCommand() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:     "token",
		Short:   "Issue an admin token signed with server.secret_key",
		Example: `  SERVER_SECRET_KEY=change-me newsguard token --ttl 1h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			token, err := jwt.NewJwtManager(&cfg.Server).CreateToken(jwt.AdminSubject, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	return cmd
}
