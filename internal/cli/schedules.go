package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewSchedulesCmd создаёт группу команд для просмотра расписаний.
func NewSchedulesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "Inspect scheduled actions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List schedules with their next due time",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			schedules, err := client.ListSchedules()
			if err != nil {
				return err
			}

			headers := []string{"NAME", "TRIGGER", "ENABLED", "ACTIONS", "NEXT_DUE", "LAST_RUN"}
			rows := make([][]string, len(schedules))
			for i, s := range schedules {
				trigger := s.Cron
				if trigger == "" {
					trigger = "every " + s.Interval
				}
				if s.Timezone != "" {
					trigger += " (" + s.Timezone + ")"
				}
				rows[i] = []string{s.Name, trigger, strconv.FormatBool(s.Enabled), strings.Join(s.Actions, ","), s.NextDueAt, s.LastRunAt}
			}

			out.Print(headers, rows, schedules)
			return nil
		},
	})

	return cmd
}
