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

// Config represents mechanism registry configuration.
type Config struct {
	// Mechanisms contains the mechanism preference order. When empty the
	// registration order of the built-in providers applies.
	Mechanisms []string

	// AllowAnonymous tells whether the ANONYMOUS mechanism may be offered.
	AllowAnonymous bool
}

type configProxy struct {
	Mechanisms     []string `yaml:"mechanisms"`
	AllowAnonymous bool     `yaml:"allow_anonymous"`
}

// UnmarshalYAML satisfies Unmarshaler interface.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	p := configProxy{}
	if err := unmarshal(&p); err != nil {
		return err
	}
	c.Mechanisms = p.Mechanisms
	c.AllowAnonymous = p.AllowAnonymous
	if len(c.Mechanisms) == 0 {
		c.Mechanisms = []string{"SCRAM-SHA-256", "SCRAM-SHA-1", "PLAIN"}
		if c.AllowAnonymous {
			c.Mechanisms = append(c.Mechanisms, "ANONYMOUS")
		}
	}
	return nil
}
