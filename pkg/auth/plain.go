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
	"bytes"
	"context"
)

const plainMechanism = "PLAIN"

// Plain represents a PLAIN client mechanism.
// The exchange completes on the initial null separated payload.
type Plain struct {
	creds Credentials
	state MechanismState
}

// NewPlain returns a new plain client mechanism instance.
func NewPlain(creds Credentials) *Plain {
	return &Plain{creds: creds, state: StateNew}
}

// Mechanism returns mechanism name.
func (p *Plain) Mechanism() string { return plainMechanism }

// State returns current exchange state.
func (p *Plain) State() MechanismState { return p.state }

// ProcessChallenge evaluates a server challenge returning the response payload.
func (p *Plain) ProcessChallenge(_ context.Context, _ []byte) ([]byte, *SASLError) {
	if p.state == StateCompleted {
		return nil, NewSASLError(BadRequest, nil)
	}
	buf := new(bytes.Buffer)
	buf.WriteString(p.creds.AuthorizationID)
	buf.WriteByte(0)
	buf.WriteString(p.creds.Username)
	buf.WriteByte(0)
	buf.WriteString(p.creds.Password)

	p.state = StateCompleted
	return buf.Bytes(), nil
}

// PlainProvider provides PLAIN mechanism instances.
type PlainProvider struct{}

// Mechanism returns provided mechanism name.
func (PlainProvider) Mechanism() string { return plainMechanism }

// IsAllowedToUse tells whether the mechanism is usable given a credential set.
// Plain requires a plaintext capable secret.
func (PlainProvider) IsAllowedToUse(creds Credentials) bool {
	return len(creds.Username) > 0 && len(creds.Password) > 0
}

// New returns a fresh single-use mechanism instance.
func (PlainProvider) New(creds Credentials) Mechanism { return NewPlain(creds) }
