package action

import (
	"fmt"
	"sort"
	"sync"
)

// Registry — реестр типов action.
//
// Потокобезопасен.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry создаёт пустой реестр.
func NewRegistry() *Registry {
	return &Registry{
		actions: make(map[string]Action),
	}
}

// DefaultRegistry создаёт реестр со стандартными action.
func DefaultRegistry(transport Transport) *Registry {
	r := NewRegistry()
	r.Register(NewHTTPAction(transport))
	return r
}

// Register регистрирует action.
// Если action с таким типом уже существует, он будет перезаписан.
func (r *Registry) Register(a Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[a.Type()] = a
}

// Get возвращает action по типу.
// Возвращает ErrActionNotFound, если action не найден.
func (r *Registry) Get(actionType string) (Action, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.actions[actionType]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrActionNotFound, actionType)
	}
	return a, nil
}

// For возвращает action для определения по его полю type.
func (r *Registry) For(definition map[string]any) (Action, error) {
	return r.Get(TypeOf(definition))
}

// Has проверяет, зарегистрирован ли action.
func (r *Registry) Has(actionType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.actions[actionType]
	return exists
}

// Types возвращает отсортированный список зарегистрированных типов.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.actions))
	for t := range r.actions {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Count возвращает количество зарегистрированных action.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.actions)
}

// Unregister удаляет action из реестра.
func (r *Registry) Unregister(actionType string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.actions, actionType)
}
