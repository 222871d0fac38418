package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage collectors",
}

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a collector by email",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")

		a, err := openStore(loadConfig())
		if err != nil {
			return err
		}
		defer a.Close()

		user, err := a.taskService.RegisterUser(cmd.Context(), email, name)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "user %d: %s <%s>\n", user.ID, user.Name, user.Email)
		return nil
	},
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage collection tasks",
}

var tasksAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a reported waste location as a pending task",
	RunE: func(cmd *cobra.Command, args []string) error {
		location, _ := cmd.Flags().GetString("location")
		wasteType, _ := cmd.Flags().GetString("type")
		amount, _ := cmd.Flags().GetString("amount")
		dateStr, _ := cmd.Flags().GetString("date")

		date := time.Now().UTC()
		if dateStr != "" {
			parsed, err := time.Parse(time.DateOnly, dateStr)
			if err != nil {
				return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", dateStr)
			}
			date = parsed
		}

		a, err := openStore(loadConfig())
		if err != nil {
			return err
		}
		defer a.Close()

		task, err := a.taskService.ReportTask(cmd.Context(), location, wasteType, amount, date)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "task %d: %s, %s at %s (%s)\n", task.ID, task.Amount, task.WasteType, task.Location, task.Status)
		return nil
	},
}

func init() {
	usersAddCmd.Flags().String("email", "", "collector email as issued by the identity provider")
	usersAddCmd.Flags().String("name", "", "display name")
	_ = usersAddCmd.MarkFlagRequired("email")
	usersCmd.AddCommand(usersAddCmd)

	tasksAddCmd.Flags().String("location", "", "where the waste was reported")
	tasksAddCmd.Flags().String("type", "", "waste category")
	tasksAddCmd.Flags().String("amount", "", "quantity with unit, e.g. \"5 kg\"")
	tasksAddCmd.Flags().String("date", "", "report date (YYYY-MM-DD), defaults to today")
	for _, name := range []string{"location", "type", "amount"} {
		_ = tasksAddCmd.MarkFlagRequired(name)
	}
	tasksCmd.AddCommand(tasksAddCmd)

	rootCmd.AddCommand(usersCmd, tasksCmd)
}
