// Package lifecycle exposes store change events as a lifecycle.Source.
package lifecycle

import (
	"context"
	"slices"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/quill/pkg/core"
)

type eventSource struct {
	events   <-chan core.Event
	sections []string
	out      chan lifecycle.Event
}

// NewSource creates a lifecycle.Source relaying the events of a store watch.
// When sections are given, only events owned by one of them are relayed.
func NewSource(events <-chan core.Event, sections ...string) lifecycle.Source {
	return &eventSource{
		events:   events,
		sections: sections,
		out:      make(chan lifecycle.Event),
	}
}

func (s *eventSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start relays until the watch channel closes or ctx is done, then closes Events.
func (s *eventSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				if len(s.sections) > 0 && !slices.Contains(s.sections, e.Section) {
					continue
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
