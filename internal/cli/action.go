package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/conduit/internal/action"
	"github.com/shaiso/conduit/internal/engine"
)

// ActionRunResult — результат локального вызова action.
type ActionRunResult struct {
	Method     string `json:"method"`
	URL        string `json:"url"`
	StatusCode int    `json:"status_code"`
	Dispatched bool   `json:"dispatched"`
	Response   any    `json:"response,omitempty"` // значение, отправленное вызывающему
	Output     any    `json:"output"`             // сырое тело ответа
}

// NewActionCmd создаёт группу команд для локальной работы с определениями action.
func NewActionCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "action",
		Short: "Run and validate action definitions locally",
	}

	cmd.AddCommand(
		newActionRunCmd(outputFn),
		newActionValidateCmd(outputFn),
	)

	return cmd
}

func newActionRunCmd(outputFn func() *Output) *cobra.Command {
	var file string
	var contextFile string
	var headers []string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute an action definition",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			def, err := LoadDefinition(file)
			if err != nil {
				return err
			}
			hydration, err := LoadContext(contextFile)
			if err != nil {
				return err
			}
			inbound, err := ParseHeaders(headers)
			if err != nil {
				return err
			}

			ctx := commandContext(cmd)
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			result, err := runAction(ctx, action.NewHTTPTransport(timeout), def, hydration, inbound)
			if err != nil {
				return err
			}

			if out.JSONMode() {
				out.JSON(result)
				return nil
			}

			out.Table(
				[]string{"METHOD", "URL", "STATUS", "DISPATCHED"},
				[][]string{{result.Method, result.URL, strconv.Itoa(result.StatusCode), strconv.FormatBool(result.Dispatched)}},
			)
			if result.Dispatched {
				out.Value(result.Response)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Action definition file (YAML or JSON)")
	cmd.Flags().StringVarP(&contextFile, "context", "c", "", "Context file for the first pass (YAML or JSON)")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Inbound header as 'Name: value' (repeatable)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Request timeout (default 30s)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// runAction выполняет определение и собирает результат для вывода.
func runAction(ctx context.Context, transport action.Transport, def map[string]any, hydration any, inbound http.Header) (*ActionRunResult, error) {
	var sent any
	sink := action.SinkFunc(func(_ context.Context, value any) error {
		sent = value
		return nil
	})

	res, err := action.NewHTTPAction(transport).Execute(ctx, &action.Invocation{
		Definition:     def,
		Hydration:      hydration,
		InboundHeaders: inbound,
		Sink:           sink,
	})
	if err != nil {
		return nil, err
	}

	return &ActionRunResult{
		Method:     res.Request.Method,
		URL:        res.Request.URL,
		StatusCode: res.StatusCode,
		Dispatched: res.Dispatched,
		Response:   sent,
		Output:     res.Output,
	}, nil
}

func newActionValidateCmd(outputFn func() *Output) *cobra.Command {
	var file string
	var contextFile string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Resolve an action definition against a context without sending it",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			def, err := LoadDefinition(file)
			if err != nil {
				return err
			}
			hydration, err := LoadContext(contextFile)
			if err != nil {
				return err
			}

			cfg, err := action.Resolve(def, hydration)
			if err != nil {
				var ve *engine.ValidationError
				if !errors.As(err, &ve) || len(ve.Issues) == 0 {
					return err
				}

				rows := make([][]string, len(ve.Issues))
				for i, issue := range ve.Issues {
					rows[i] = []string{issue.Field, issue.Reason}
				}
				out.Print([]string{"FIELD", "REASON"}, rows, ve.Issues)
				return fmt.Errorf("definition is invalid: %d issue(s)", len(ve.Issues))
			}

			if out.JSONMode() {
				out.JSON(cfg)
				return nil
			}

			out.Success("Definition is valid")
			out.Table(
				[]string{"METHOD", "URL", "CONTENT_TYPE", "FORWARD", "MAPPING"},
				[][]string{{cfg.Method, cfg.URL, cfg.ContentType, cfg.PassThroughHeaders.Mode.String(), cfg.ResponseMapping.Mode.String()}},
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Action definition file (YAML or JSON)")
	cmd.Flags().StringVarP(&contextFile, "context", "c", "", "Context file (YAML or JSON)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

// commandContext возвращает контекст команды или context.Background.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
