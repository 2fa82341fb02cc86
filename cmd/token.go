package cmd

import (
	"fmt"

	internalApp "github.com/haierkeys/fast-qr-history-sync/internal/app"
	pkgapp "github.com/haierkeys/fast-qr-history-sync/pkg/app"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	var config, uid, ip string

	cmd := &cobra.Command{
		Use:   "token --uid U",
		Short: "Mint a bearer token for the cloud history API",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveConfig(config)
			if err != nil {
				return err
			}
			cfg, _, err := internalApp.LoadConfig(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			tm := pkgapp.NewTokenManager(pkgapp.TokenConfig{
				SecretKey: cfg.Security.AuthTokenKey,
				Expiry:    cfg.GetTokenExpiry(),
				Issuer:    pkgapp.DefaultTokenIssuer,
			})
			token, err := tm.Generate(uid, ip)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&config, "config", "c", "", "config file")
	fs.StringVar(&uid, "uid", "", "user id carried by the token")
	fs.StringVar(&ip, "ip", "", "client ip recorded in the token")
	_ = cmd.MarkFlagRequired("uid")
	return cmd
}

func init() {
	rootCmd.AddCommand(newTokenCmd())
}
