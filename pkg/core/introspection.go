package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	RepositoryType string   `json:"repository_type"`
	Repository     any      `json:"repository,omitempty"`
	Sections       []string `json:"sections"`
	SharedLocks    bool     `json:"shared_locks"`
	ActiveWatchers int      `json:"active_watchers"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := ServiceState{
		RepositoryType: "repository",
		SharedLocks:    s.locker != nil,
		ActiveWatchers: s.watchers,
	}
	for _, sec := range s.sections {
		state.Sections = append(state.Sections, sec.Name())
	}

	if comp, ok := s.repo.(introspection.Component); ok {
		state.RepositoryType = comp.ComponentType()
	}
	if in, ok := s.repo.(introspection.Introspectable); ok {
		state.Repository = in.State()
	}
	return state
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
