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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_DefaultOrder(t *testing.T) {
	// when
	r := NewRegistry(Config{})

	// then
	require.Equal(t, []string{"SCRAM-SHA-256", "SCRAM-SHA-1", "PLAIN"}, r.PreferenceOrder())
}

func TestRegistry_PreferredRegistration(t *testing.T) {
	// given
	r := NewRegistry(Config{})

	// when
	r.Register(AnonymousProvider{}, true)

	// then
	require.Equal(t, []string{"ANONYMOUS", "SCRAM-SHA-256", "SCRAM-SHA-1", "PLAIN"}, r.PreferenceOrder())
}

func TestRegistry_ReRegistrationKeepsOrderPosition(t *testing.T) {
	// given
	r := NewRegistry(Config{})

	// when
	r.Register(PlainProvider{}, true)

	// then
	require.Equal(t, []string{"SCRAM-SHA-256", "SCRAM-SHA-1", "PLAIN"}, r.PreferenceOrder())
}

func TestRegistry_SetPreferenceOrderUnregistersUnmentioned(t *testing.T) {
	// given
	r := NewRegistry(Config{AllowAnonymous: true})

	// when
	r.SetPreferenceOrder("SCRAM-SHA-1", "PLAIN")

	// then
	require.Equal(t, []string{"SCRAM-SHA-1", "PLAIN"}, r.PreferenceOrder())

	m := r.Select([]string{"SCRAM-SHA-256", "SCRAM-SHA-1"}, Credentials{Username: "ortuman", Password: "1234"})
	require.NotNil(t, m)
	require.Equal(t, "SCRAM-SHA-1", m.Mechanism())
}

func TestRegistry_SetPreferenceOrderDropsUnknownNames(t *testing.T) {
	// given
	r := NewRegistry(Config{})

	// when
	r.SetPreferenceOrder("PLAIN", "DIGEST-MD5")

	// then
	require.Equal(t, []string{"PLAIN"}, r.PreferenceOrder())
}

func TestRegistry_SelectionDeterminism(t *testing.T) {
	// given
	r := NewRegistry(Config{AllowAnonymous: true})
	r.SetPreferenceOrder("SCRAM-SHA-256", "SCRAM-SHA-1", "PLAIN", "ANONYMOUS")

	// when
	m := r.Select([]string{"PLAIN", "SCRAM-SHA-256"}, Credentials{Username: "ortuman", Password: "1234"})

	// then
	require.NotNil(t, m)
	require.Equal(t, "SCRAM-SHA-256", m.Mechanism())
}

func TestRegistry_SelectSkipsUnusableMechanisms(t *testing.T) {
	// given
	r := NewRegistry(Config{AllowAnonymous: true})

	// when
	m := r.Select([]string{"SCRAM-SHA-256", "PLAIN", "ANONYMOUS"}, Credentials{})

	// then
	require.NotNil(t, m)
	require.Equal(t, "ANONYMOUS", m.Mechanism())
}

func TestRegistry_SelectExhausted(t *testing.T) {
	// given
	r := NewRegistry(Config{})

	// when
	m := r.Select([]string{"DIGEST-MD5"}, Credentials{Username: "ortuman", Password: "1234"})

	// then
	require.Nil(t, m)
}

func TestRegistry_SelectReturnsFreshInstances(t *testing.T) {
	// given
	r := NewRegistry(Config{})
	creds := Credentials{Username: "ortuman", Password: "1234"}

	// when
	m1 := r.Select([]string{"PLAIN"}, creds)
	m2 := r.Select([]string{"PLAIN"}, creds)

	// then
	require.NotSame(t, m1, m2)
}
