// Conduit CLI — инструмент командной строки для запуска определений action
// и просмотра состояния gateway.
//
// Использование:
//
//	conduit [--api-url URL] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	action       Локальный запуск и проверка определений
//	routes       Маршруты gateway
//	invocations  Журнал вызовов
//	schedules    Расписания
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/conduit/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "conduit",
		Short:         "Conduit CLI — templated HTTP actions",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "Gateway URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewActionCmd(outputFn),
		cli.NewRoutesCmd(clientFn, outputFn),
		cli.NewInvocationsCmd(clientFn, outputFn),
		cli.NewSchedulesCmd(clientFn, outputFn),
	)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
