package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// NewRoutesCmd создаёт группу команд для просмотра маршрутов gateway.
func NewRoutesCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Inspect gateway routes",
	}

	cmd.AddCommand(newRoutesListCmd(clientFn, outputFn))

	return cmd
}

func newRoutesListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured routes",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			routes, err := client.ListRoutes()
			if err != nil {
				return err
			}

			headers := []string{"METHOD", "PATH", "ACTIONS"}
			rows := make([][]string, len(routes))
			for i, r := range routes {
				rows[i] = []string{r.Method, r.Path, strings.Join(r.Actions, ",")}
			}

			out.Print(headers, rows, routes)
			return nil
		},
	}
}
