package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"advisory-api/internal/service"
)

var advisorCmd = &cobra.Command{
	Use:   "advisor",
	Short: "Manage advisor accounts",
}

var (
	advisorEmail string
	advisorName  string
)

var advisorCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an advisor account; the password is read from ADVISOR_PASSWORD",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		pw := os.Getenv("ADVISOR_PASSWORD")
		if pw == "" {
			return errors.New("ADVISOR_PASSWORD is required")
		}
		repo, release, err := openRepo(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer release()

		svc := service.New(repo, nil, log, service.Options{Secret: cfg.JWTSecret, SessionTTL: cfg.SessionTTL})
		a, err := svc.CreateAdvisor(cmd.Context(), advisorEmail, advisorName, pw)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "advisor %s created (%s)\n", a.Email, a.ID)
		return nil
	},
}

func init() {
	advisorCreateCmd.Flags().StringVar(&advisorEmail, "email", "", "advisor email")
	advisorCreateCmd.Flags().StringVar(&advisorName, "name", "", "display name")
	_ = advisorCreateCmd.MarkFlagRequired("email")
	advisorCmd.AddCommand(advisorCreateCmd)
}
