package gateway

import (
	"context"

	"github.com/shaiso/conduit/internal/domain"
	"github.com/shaiso/conduit/internal/mq"
	"github.com/shaiso/conduit/internal/repo"
)

// Recorder — получатель записей о завершённых вызовах.
//
// Ошибки записи логируются и учитываются в метриках, но не влияют на ответ.
type Recorder interface {
	Name() string
	Record(ctx context.Context, inv *domain.Invocation) error
}

type recorderFunc struct {
	name string
	fn   func(ctx context.Context, inv *domain.Invocation) error
}

func (r recorderFunc) Name() string { return r.name }

func (r recorderFunc) Record(ctx context.Context, inv *domain.Invocation) error {
	return r.fn(ctx, inv)
}

// NewRecorder создаёт Recorder из функции.
func NewRecorder(name string, fn func(ctx context.Context, inv *domain.Invocation) error) Recorder {
	return recorderFunc{name: name, fn: fn}
}

// RepoRecorder сохраняет вызовы в журнал.
func RepoRecorder(r *repo.InvocationRepo) Recorder {
	return NewRecorder("repo", r.Create)
}

// PublisherRecorder публикует invocation.completed.
func PublisherRecorder(p *mq.Publisher) Recorder {
	return NewRecorder("mq", p.PublishInvocationCompleted)
}
