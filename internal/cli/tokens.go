package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/quillhq/quill/internal/app"
	"github.com/quillhq/quill/internal/service"
)

func tokensCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "tokens",
		Short: "Maintain access tokens",
	}
	c.AddCommand(&cobra.Command{
		Use:   "prune",
		Short: "Delete expired access tokens now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			stores, err := app.OpenStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer stores.Close(context.Background())

			svc := service.NewAuthService(stores.Users, nil, service.AuthConfig{TokenTTL: cfg.TokenTTL}, quietLogger(cmd.ErrOrStderr()), nil)
			n, err := svc.PruneExpiredTokens(cmd.Context())
			if err != nil {
				return err
			}
			newPrinter(cmd.OutOrStdout()).ok("pruned %d expired tokens", n)
			return nil
		},
	})
	return c
}
