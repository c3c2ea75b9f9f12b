package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// --- Response types (дублируются из gateway/dto.go, клиент не импортирует internal/gateway) ---

// RouteResponse — маршрут gateway из API.
type RouteResponse struct {
	Method  string   `json:"method"`
	Path    string   `json:"path"`
	Actions []string `json:"actions"`
}

// InvocationResponse — вызов action из API.
type InvocationResponse struct {
	ID             string `json:"id"`
	Route          string `json:"route"`
	Action         string `json:"action,omitempty"`
	Method         string `json:"method,omitempty"`
	URL            string `json:"url,omitempty"`
	Status         string `json:"status"`
	ResponseStatus int    `json:"response_status,omitempty"`
	Dispatched     bool   `json:"dispatched"`
	Error          string `json:"error,omitempty"`
	StartedAt      string `json:"started_at"`
	FinishedAt     string `json:"finished_at,omitempty"`
	DurationMs     int64  `json:"duration_ms"`
}

// ScheduleResponse — расписание из API.
type ScheduleResponse struct {
	Name      string   `json:"name"`
	Cron      string   `json:"cron,omitempty"`
	Interval  string   `json:"interval,omitempty"`
	Timezone  string   `json:"timezone,omitempty"`
	Enabled   bool     `json:"enabled"`
	Actions   []string `json:"actions"`
	NextDueAt string   `json:"next_due_at,omitempty"`
	LastRunAt string   `json:"last_run_at,omitempty"`
}

// ListInvocationsOpts — параметры фильтрации вызовов.
type ListInvocationsOpts struct {
	Route  string
	Status string
	Limit  int
	Offset int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для management API gateway.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListRoutes возвращает маршруты gateway.
func (c *Client) ListRoutes() ([]RouteResponse, error) {
	var routes []RouteResponse
	err := c.list("/api/v1/routes", nil, &routes)
	return routes, err
}

// ListInvocations возвращает журнал вызовов с фильтрацией.
func (c *Client) ListInvocations(opts ListInvocationsOpts) ([]InvocationResponse, error) {
	params := url.Values{}
	if opts.Route != "" {
		params.Set("route", opts.Route)
	}
	if opts.Status != "" {
		params.Set("status", strings.ToUpper(opts.Status))
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", fmt.Sprintf("%d", opts.Offset))
	}

	var invocations []InvocationResponse
	err := c.list("/api/v1/invocations", params, &invocations)
	return invocations, err
}

// GetInvocation возвращает вызов по ID.
func (c *Client) GetInvocation(id string) (*InvocationResponse, error) {
	var inv InvocationResponse
	err := c.get("/api/v1/invocations/"+url.PathEscape(id), &inv)
	return &inv, err
}

// ListSchedules возвращает расписания gateway.
func (c *Client) ListSchedules() ([]ScheduleResponse, error) {
	var schedules []ScheduleResponse
	err := c.list("/api/v1/schedules", nil, &schedules)
	return schedules, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return json.Unmarshal(dr.Data, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return json.Unmarshal(lr.Data, result)
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}
	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
