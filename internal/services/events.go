package services

import (
	"github.com/pkg/errors"

	"handmade/internal/domain"
	applog "handmade/internal/log"
)

type EventDispatcher interface {
	Dispatch(event domain.Event) error
}

// Dispatchers fans an event out to every dispatcher, returning the first failure.
type Dispatchers []EventDispatcher

func (ds Dispatchers) Dispatch(event domain.Event) error {
	var first error
	for _, d := range ds {
		if d == nil {
			continue
		}
		if err := d.Dispatch(event); err != nil && first == nil {
			first = errors.Wrapf(err, "dispatch %s", event.Type())
		}
	}
	return first
}

type NopDispatcher struct{}

func (NopDispatcher) Dispatch(domain.Event) error { return nil }

// announce publishes events after a committed write. Failures are logged only.
func announce(d EventDispatcher, events ...domain.Event) {
	if d == nil {
		return
	}
	for _, e := range events {
		if err := d.Dispatch(e); err != nil {
			applog.Logger().Warn().Err(err).Str("event", e.Type()).Msg("event dispatch failed")
		}
	}
}
