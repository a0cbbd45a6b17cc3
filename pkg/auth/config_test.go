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
	"gopkg.in/yaml.v2"
)

func TestConfig_Unmarshal(t *testing.T) {
	// given
	raw := `
mechanisms:
  - SCRAM-SHA-256
  - PLAIN
allow_anonymous: true
`
	// when
	var cfg Config
	err := yaml.Unmarshal([]byte(raw), &cfg)

	// then
	require.Nil(t, err)
	require.Equal(t, []string{"SCRAM-SHA-256", "PLAIN"}, cfg.Mechanisms)
	require.True(t, cfg.AllowAnonymous)
}

func TestConfig_UnmarshalDefaults(t *testing.T) {
	// given
	raw := `allow_anonymous: true`

	// when
	var cfg Config
	err := yaml.Unmarshal([]byte(raw), &cfg)

	// then
	require.Nil(t, err)
	require.Equal(t, []string{"SCRAM-SHA-256", "SCRAM-SHA-1", "PLAIN", "ANONYMOUS"}, cfg.Mechanisms)
}
