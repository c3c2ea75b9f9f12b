package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/conduit/internal/domain"
)

// Лимиты выборки.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// InvocationRepo — журнал вызовов action.
type InvocationRepo struct {
	pool *pgxpool.Pool
}

// NewInvocationRepo создаёт новый InvocationRepo.
func NewInvocationRepo(pool *pgxpool.Pool) *InvocationRepo {
	return &InvocationRepo{pool: pool}
}

// Create сохраняет завершённый вызов.
func (r *InvocationRepo) Create(ctx context.Context, inv *domain.Invocation) error {
	query := `
		INSERT INTO invocations (id, route, action, method, url, status, response_status,
		                         dispatched, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.pool.Exec(ctx, query,
		inv.ID,
		inv.Route,
		nullString(inv.Action),
		nullString(inv.Method),
		nullString(inv.URL),
		inv.Status,
		nullInt(inv.ResponseStatus),
		inv.Dispatched,
		nullString(inv.Error),
		inv.StartedAt,
		inv.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert invocation: %w", err)
	}
	return nil
}

// GetByID возвращает вызов по ID.
func (r *InvocationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invocation, error) {
	query := `
		SELECT id, route, action, method, url, status, response_status,
		       dispatched, error, started_at, finished_at
		FROM invocations
		WHERE id = $1
	`
	inv, err := scanInvocation(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inv, err
}

// List возвращает вызовы с фильтрацией, новые первыми.
func (r *InvocationRepo) List(ctx context.Context, filter InvocationFilter) ([]domain.Invocation, error) {
	filter = filter.Normalize()

	query := `
		SELECT id, route, action, method, url, status, response_status,
		       dispatched, error, started_at, finished_at
		FROM invocations
		WHERE ($1::text IS NULL OR route = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY started_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.Route),
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list invocations: %w", err)
	}
	defer rows.Close()

	var invocations []domain.Invocation
	for rows.Next() {
		inv, err := scanInvocation(rows)
		if err != nil {
			return nil, err
		}
		invocations = append(invocations, *inv)
	}
	return invocations, rows.Err()
}

// --- Helpers ---

// InvocationFilter — параметры фильтрации вызовов.
type InvocationFilter struct {
	Route  string
	Status domain.InvocationStatus
	Limit  int
	Offset int
}

// Normalize приводит лимиты к допустимым значениям.
func (f InvocationFilter) Normalize() InvocationFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// scanInvocation сканирует одну строку в Invocation.
// pgx.ErrNoRows возвращается без обёртки.
func scanInvocation(row pgx.Row) (*domain.Invocation, error) {
	var inv domain.Invocation
	var action, method, url, invError *string
	var responseStatus *int32

	err := row.Scan(
		&inv.ID,
		&inv.Route,
		&action,
		&method,
		&url,
		&inv.Status,
		&responseStatus,
		&inv.Dispatched,
		&invError,
		&inv.StartedAt,
		&inv.FinishedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan invocation: %w", err)
	}

	inv.Action = deref(action)
	inv.Method = deref(method)
	inv.URL = deref(url)
	inv.Error = deref(invError)
	if responseStatus != nil {
		inv.ResponseStatus = int(*responseStatus)
	}

	return &inv, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullInt возвращает nil для нуля.
func nullInt(n int) *int32 {
	if n == 0 {
		return nil
	}
	v := int32(n)
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
