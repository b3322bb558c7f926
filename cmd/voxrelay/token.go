package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/voxrelay/internal/auth"
)

var (
	tokenName string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token <subject>",
	Short: "Mint a bearer token for POST /api/publish",
	Long: `token signs a publish token with the configured publish_secret.
The subject identifies the publishing device or user in the server logs.`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenName, "name", "", "Display name stored in the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime, 0 for no expiry")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	jwtCfg := auth.PublishConfig(cfg.PublishSecret)
	if !jwtCfg.Enabled() {
		return errors.New("publish_secret is not configured; publishing is open")
	}
	jwtCfg.TTL = tokenTTL

	token, err := auth.GenerateToken(jwtCfg, args[0], tokenName, time.Now())
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
