package miele

import (
	"errors"
	"fmt"
)

// Registry is the ordered, immutable set of selectors for one appliance type. Every channel ID appears exactly once.
type Registry struct {
	selectors []*ChannelSelector
	byChannel map[string]*ChannelSelector
	bySource  map[string][]*ChannelSelector
}

// NewRegistry builds a Registry from selectors in the given order. Every problem found is returned, joined.
func NewRegistry(selectors ...*ChannelSelector) (*Registry, error) {
	r := &Registry{
		selectors: make([]*ChannelSelector, 0, len(selectors)),
		byChannel: make(map[string]*ChannelSelector, len(selectors)),
		bySource:  make(map[string][]*ChannelSelector),
	}

	var errs []error
	for i, s := range selectors {
		if s.channelID == "" {
			errs = append(errs, fmt.Errorf("selector %d (%s): %w", i, s, ErrEmptyChannel))
			continue
		}

		if !s.sourceKey.Valid && s.defaultState == nil {
			errs = append(errs, fmt.Errorf("%w: %s", ErrNoSource, s.channelID))
			continue
		}

		if _, exists := r.byChannel[s.channelID]; exists {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateChannel, s.channelID))
			continue
		}

		r.selectors = append(r.selectors, s)
		r.byChannel[s.channelID] = s
		if s.sourceKey.Valid {
			r.bySource[s.sourceKey.String] = append(r.bySource[s.sourceKey.String], s)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	return r, nil
}

// MustRegistry is like NewRegistry but panics on error. It is meant for package-level selector tables.
func MustRegistry(selectors ...*ChannelSelector) *Registry {
	r, err := NewRegistry(selectors...)
	if err != nil {
		panic(err)
	}

	return r
}

// All returns every selector in registration order. The slice must not be modified.
func (r *Registry) All() []*ChannelSelector {
	return r.selectors
}

// ByChannelID returns the selector feeding the channel id.
func (r *Registry) ByChannelID(id string) (*ChannelSelector, bool) {
	s, ok := r.byChannel[id]
	return s, ok
}

// BySourceKey returns every selector reading the device property key, in registration order. Several selectors can
// share the extended device state property.
func (r *Registry) BySourceKey(key string) []*ChannelSelector {
	return r.bySource[key]
}

// SourceKeys returns the distinct device properties read by this registry, in registration order.
func (r *Registry) SourceKeys() []string {
	keys := make([]string, 0, len(r.bySource))
	seen := make(map[string]struct{}, len(r.bySource))
	for _, s := range r.selectors {
		if !s.sourceKey.Valid {
			continue
		}
		if _, ok := seen[s.sourceKey.String]; ok {
			continue
		}

		seen[s.sourceKey.String] = struct{}{}
		keys = append(keys, s.sourceKey.String)
	}

	return keys
}

// Properties returns the selectors for static appliance properties.
func (r *Registry) Properties() []*ChannelSelector {
	return r.filter(func(s *ChannelSelector) bool { return s.property })
}

// States returns the selectors for values that change while the appliance runs.
func (r *Registry) States() []*ChannelSelector {
	return r.filter(func(s *ChannelSelector) bool { return !s.property })
}

func (r *Registry) filter(keep func(*ChannelSelector) bool) []*ChannelSelector {
	var result []*ChannelSelector
	for _, s := range r.selectors {
		if keep(s) {
			result = append(result, s)
		}
	}

	return result
}
