// Copyright 2022 The jackal Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package auth

import (
	"sync"

	stringsutil "github.com/jackal-xmpp/sasl/pkg/util/strings"
)

// Registry holds the set of registered mechanism providers along with their
// selection preference order. Invariant: the order contains exactly the set
// of registered names, with no duplicates.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
}

// NewRegistry returns a registry populated with the built-in providers
// according to cfg.
func NewRegistry(cfg Config) *Registry {
	r := &Registry{
		providers: make(map[string]Provider),
	}
	r.Register(NewScramProvider(ScramSHA256), false)
	r.Register(NewScramProvider(ScramSHA1), false)
	r.Register(PlainProvider{}, false)
	if cfg.AllowAnonymous {
		r.Register(AnonymousProvider{}, false)
	}
	if len(cfg.Mechanisms) > 0 {
		r.SetPreferenceOrder(cfg.Mechanisms...)
	}
	return r
}

// Register adds a provider to the registry. When preferred is set the
// mechanism name is prepended to the preference order, otherwise appended.
// Re-registering a name replaces the provider keeping its order position.
func (r *Registry) Register(p Provider, preferred bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Mechanism()
	_, registered := r.providers[name]
	r.providers[name] = p
	if registered {
		return
	}
	if preferred {
		r.order = append([]string{name}, r.order...)
		return
	}
	r.order = append(r.order, name)
}

// SetPreferenceOrder replaces the preference order wholesale. Names absent
// from the registry are dropped from the new order, and registered
// mechanisms left out of the new order are unregistered entirely.
func (r *Registry) SetPreferenceOrder(names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var order []string
	for _, name := range names {
		if _, ok := r.providers[name]; !ok {
			continue
		}
		if stringsutil.StringSliceContains(name, order) {
			continue
		}
		order = append(order, name)
	}
	for name := range r.providers {
		if !stringsutil.StringSliceContains(name, order) {
			delete(r.providers, name)
		}
	}
	r.order = order
}

// Select iterates the preference order returning a fresh instance of the
// first mechanism that is both server advertised and usable given creds.
// A nil mechanism is returned when the order is exhausted.
func (r *Registry) Select(advertised []string, creds Credentials) Mechanism {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, name := range r.order {
		if !stringsutil.StringSliceContains(name, advertised) {
			continue
		}
		p := r.providers[name]
		if !p.IsAllowedToUse(creds) {
			continue
		}
		return p.New(creds)
	}
	return nil
}

// PreferenceOrder returns a snapshot of the current preference order.
func (r *Registry) PreferenceOrder() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order := make([]string, len(r.order))
	copy(order, r.order)
	return order
}
