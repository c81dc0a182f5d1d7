package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/nzcvm/nzcvm-webapp/internal/auth"
)

var tokenFlags struct {
	subject string
	ttl     time.Duration
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage bearer tokens for the run endpoint",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Mint a token signed with JWT_SECRET",
	Args:  cobra.NoArgs,
	RunE:  runTokenIssue,
}

func init() {
	tokenIssueCmd.Flags().StringVar(&tokenFlags.subject, "subject", "", "who the token is for")
	tokenIssueCmd.Flags().DurationVar(&tokenFlags.ttl, "ttl", 24*time.Hour, "token lifetime")
	tokenIssueCmd.MarkFlagRequired("subject")

	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}

func runTokenIssue(cmd *cobra.Command, args []string) error {
	svc := auth.NewService(os.Getenv("JWT_SECRET"))
	if !svc.Enabled() {
		return errors.New("JWT_SECRET is not set")
	}
	token, err := svc.IssueToken(tokenFlags.subject, tokenFlags.ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
