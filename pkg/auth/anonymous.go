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
	"context"
)

const anonymousMechanism = "ANONYMOUS"

// Anonymous represents an ANONYMOUS client mechanism.
// The exchange completes on the initial empty response.
type Anonymous struct {
	state MechanismState
}

// NewAnonymous returns a new anonymous client mechanism instance.
func NewAnonymous() *Anonymous {
	return &Anonymous{state: StateNew}
}

// Mechanism returns mechanism name.
func (a *Anonymous) Mechanism() string { return anonymousMechanism }

// State returns current exchange state.
func (a *Anonymous) State() MechanismState { return a.state }

// ProcessChallenge evaluates a server challenge returning the response payload.
func (a *Anonymous) ProcessChallenge(_ context.Context, _ []byte) ([]byte, *SASLError) {
	if a.state == StateCompleted {
		return nil, NewSASLError(BadRequest, nil)
	}
	a.state = StateCompleted
	return []byte{}, nil
}

// AnonymousProvider provides ANONYMOUS mechanism instances.
type AnonymousProvider struct{}

// Mechanism returns provided mechanism name.
func (AnonymousProvider) Mechanism() string { return anonymousMechanism }

// IsAllowedToUse tells whether the mechanism is usable given a credential set.
// Anonymous login is only allowed when no credentials have been configured.
func (AnonymousProvider) IsAllowedToUse(creds Credentials) bool { return creds.IsZero() }

// New returns a fresh single-use mechanism instance.
func (AnonymousProvider) New(_ Credentials) Mechanism { return NewAnonymous() }
