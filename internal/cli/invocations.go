package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/conduit/internal/mq"
)

// NewInvocationsCmd создаёт группу команд для журнала вызовов.
func NewInvocationsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invocations",
		Aliases: []string{"inv"},
		Short:   "Inspect the invocation log",
	}

	cmd.AddCommand(
		newInvocationsListCmd(clientFn, outputFn),
		newInvocationsShowCmd(clientFn, outputFn),
		newInvocationsTailCmd(outputFn),
	)

	return cmd
}

func invocationRow(inv InvocationResponse) []string {
	status := ""
	if inv.ResponseStatus > 0 {
		status = strconv.Itoa(inv.ResponseStatus)
	}
	return []string{inv.ID, inv.Route, inv.Action, inv.Status, status, inv.StartedAt}
}

var invocationHeaders = []string{"ID", "ROUTE", "ACTION", "STATUS", "HTTP", "STARTED"}

func newInvocationsListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var route string
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invocations",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			invocations, err := client.ListInvocations(ListInvocationsOpts{
				Route:  route,
				Status: status,
				Limit:  limit,
			})
			if err != nil {
				return err
			}

			rows := make([][]string, len(invocations))
			for i, inv := range invocations {
				rows[i] = invocationRow(inv)
			}

			out.Print(invocationHeaders, rows, invocations)
			return nil
		},
	}

	cmd.Flags().StringVar(&route, "route", "", "Filter by route pattern (e.g. 'POST /users/{id}')")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (RUNNING, SUCCEEDED, FAILED)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newInvocationsShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show invocation details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			inv, err := client.GetInvocation(args[0])
			if err != nil {
				return err
			}

			if out.JSONMode() {
				out.JSON(inv)
				return nil
			}

			rows := [][]string{
				{"ID", inv.ID},
				{"Route", inv.Route},
				{"Action", inv.Action},
				{"Request", inv.Method + " " + inv.URL},
				{"Status", inv.Status},
				{"HTTP Status", strconv.Itoa(inv.ResponseStatus)},
				{"Dispatched", strconv.FormatBool(inv.Dispatched)},
				{"Started", inv.StartedAt},
				{"Finished", inv.FinishedAt},
				{"Duration", fmt.Sprintf("%dms", inv.DurationMs)},
			}
			if inv.Error != "" {
				rows = append(rows, []string{"Error", inv.Error})
			}
			out.Table([]string{"FIELD", "VALUE"}, rows)
			return nil
		},
	}
}

func newInvocationsTailCmd(outputFn func() *Output) *cobra.Command {
	var amqpURL string

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Stream completed invocations from RabbitMQ",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			logger := slog.New(slog.DiscardHandler)

			ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			conn, err := mq.NewConnection(amqpURL, logger)
			if err != nil {
				return err
			}
			defer conn.Close()

			queue, err := mq.DeclareTailQueue(ctx, conn)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Listening on %s (Ctrl+C to stop)", queue))

			consumer := mq.NewConsumer(conn, logger, mq.ConsumerConfig{
				Queue:   queue,
				Handler: tailHandler(out),
			})

			if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&amqpURL, "amqp-url", mq.DefaultURL(), "RabbitMQ URL")

	return cmd
}

// tailHandler печатает события завершения вызовов.
func tailHandler(out *Output) mq.Handler {
	return func(_ context.Context, d *mq.Delivery) error {
		if d.Message.Type != mq.MessageTypeInvocationCompleted {
			return nil
		}

		p, err := mq.ParsePayload[mq.InvocationCompletedPayload](&d.Message)
		if err != nil {
			return err
		}

		if out.JSONMode() {
			out.JSON(p)
			return nil
		}

		inv := InvocationResponse{
			ID:             p.InvocationID.String(),
			Route:          p.Route,
			Action:         p.Action,
			Status:         p.Status,
			ResponseStatus: p.ResponseStatus,
			StartedAt:      d.Message.Timestamp.Format("15:04:05"),
		}
		out.Table(invocationHeaders, [][]string{invocationRow(inv)})
		return nil
	}
}
