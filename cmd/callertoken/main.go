package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"skillchain/internal/callertoken"
	"skillchain/internal/platform/config"
	"skillchain/internal/registry/models"
)

var (
	configPath string
	address    string
	ttl        time.Duration
	token      string
)

var rootCmd = &cobra.Command{
	Use:   "callertoken",
	Short: "Mint and inspect registry caller tokens",
	Long:  "Mints the bearer tokens that identify a caller address to the skillchain registry API",
}

var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint a caller token for an address",
	RunE:  mint,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a caller token and print its caller",
	RunE:  verify,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (defaults to SKILLCHAIN_CONFIG and the environment)")

	mintCmd.Flags().StringVarP(&address, "address", "a", "", "Caller address, 0x-prefixed (required)")
	mintCmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to auth.token_ttl)")
	_ = mintCmd.MarkFlagRequired("address")

	verifyCmd.Flags().StringVarP(&token, "token", "t", "", "Token to verify (required)")
	_ = verifyCmd.MarkFlagRequired("token")

	rootCmd.AddCommand(mintCmd)
	rootCmd.AddCommand(verifyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.FromEnv()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func tokenService(cfg config.Config) *callertoken.Service {
	if cfg.UsesDevSigningKey() {
		fmt.Fprintln(os.Stderr, "warning: using the development signing key")
	}
	return callertoken.NewService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience)
}

func mint(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	caller, err := models.ParseAddress(address)
	if err != nil {
		return fmt.Errorf("invalid address %q: %w", address, err)
	}
	lifetime := ttl
	if lifetime <= 0 {
		lifetime = cfg.Auth.TokenTTL
	}

	signed, err := tokenService(cfg).GenerateCallerToken(caller, lifetime)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), signed)
	return nil
}

func verify(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	claims, err := tokenService(cfg).ParseToken(token)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "caller:  %s\n", claims.Caller)
	fmt.Fprintf(out, "token:   %s\n", claims.ID)
	if claims.ExpiresAt != nil {
		fmt.Fprintf(out, "expires: %s\n", claims.ExpiresAt.Time.UTC().Format(time.RFC3339))
	}
	return nil
}
