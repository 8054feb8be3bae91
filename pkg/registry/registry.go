// Package registry maps action type names to their factories and validates
// workflow node configs against each factory's schema.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/driftlabs/cascade/pkg/protocol"
)

type Registry struct {
	logger          *slog.Logger
	actionFactories map[string]protocol.ActionFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:          logger,
		actionFactories: make(map[string]protocol.ActionFactory),
	}
}

func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.actionFactories[factory.ID()] = factory
}

// CreateAction instantiates the handler for an action type. Unknown types are
// an error the caller converts into a node-local failure.
func (r *Registry) CreateAction(actionType string, config map[string]any) (protocol.Action, error) {
	factory, ok := r.actionFactories[actionType]
	if !ok {
		return nil, fmt.Errorf("action type %q not registered", actionType)
	}

	return factory.Create(config)
}

// ActionSchema returns the JSON schema for an action type, when registered.
func (r *Registry) ActionSchema(actionType string) (map[string]any, bool) {
	factory, ok := r.actionFactories[actionType]
	if !ok {
		return nil, false
	}

	return factory.Schema(), true
}

// ActionTypes returns the registered action type names.
func (r *Registry) ActionTypes() []string {
	types := make([]string, 0, len(r.actionFactories))
	for t := range r.actionFactories {
		types = append(types, t)
	}

	return types
}
