package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"chengyu-bot-go/internal/repository"
	"chengyu-bot-go/internal/service"
	"chengyu-bot-go/pkg/database"
	"chengyu-bot-go/pkg/log"

	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the most recent actions of a user",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetString("user")
		if userID == "" {
			return errors.New("--user is required")
		}
		limit, _ := cmd.Flags().GetInt("limit")

		bootstrap(cmd)
		defer log.Sync()

		actions := service.NewActionLogService(repository.NewActionLogRepository(database.DB), nil)
		entries, err := actions.Recent(cmd.Context(), userID, limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "no actions")
			return nil
		}
		for _, e := range entries {
			details := ""
			if len(e.Details) > 0 {
				raw, _ := json.Marshal(e.Details)
				details = string(raw)
			}
			fmt.Fprintf(out, "%s  %-22s %s\n", e.Timestamp, e.ActionType, details)
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().String("user", "", "User ID (Telegram chat id or web user id)")
	logsCmd.Flags().IntP("limit", "n", service.DefaultLogLimit, "Number of entries to show")
}
