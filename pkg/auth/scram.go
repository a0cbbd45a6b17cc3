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
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"github.com/google/uuid"
	stringsutil "github.com/jackal-xmpp/sasl/pkg/util/strings"
	"golang.org/x/crypto/pbkdf2"
)

// ScramType represents a scram mechanism class.
type ScramType int

const (
	// ScramSHA1 represents SCRAM-SHA-1 authentication method.
	ScramSHA1 ScramType = iota

	// ScramSHA256 represents SCRAM-SHA-256 authentication method.
	ScramSHA256
)

type scramParameter struct {
	key string
	val string
}

type scramParameters struct {
	params []scramParameter
}

func (s *scramParameters) getParameter(key string) string {
	for _, p := range s.params {
		if p.key == key {
			return p.val
		}
	}
	return ""
}

func (s *scramParameters) hasParameter(key string) bool {
	for _, p := range s.params {
		if p.key == key {
			return true
		}
	}
	return false
}

func parseScramParameters(str string) *scramParameters {
	p := &scramParameters{}
	for _, kv := range strings.Split(str, ",") {
		key, val := stringsutil.SplitKeyAndValue(kv, '=')
		p.params = append(p.params, scramParameter{key, val})
	}
	return p
}

// Scram represents a SCRAM client mechanism.
// Channel binding is not supported so the GS2 header is always the 'n' flagged form.
type Scram struct {
	tp              ScramType
	h               func() hash.Hash
	creds           Credentials
	state           MechanismState
	clientNonce     string
	gs2Header       string
	clientFirstBare string
	srvSignature    []byte
}

// NewScram returns a new scram client mechanism instance.
func NewScram(scramType ScramType, creds Credentials) *Scram {
	s := &Scram{
		tp:    scramType,
		creds: creds,
		state: StateNew,
	}
	switch s.tp {
	case ScramSHA1:
		s.h = sha1.New
	case ScramSHA256:
		s.h = sha256.New
	}
	return s
}

// Mechanism returns mechanism name.
func (s *Scram) Mechanism() string {
	switch s.tp {
	case ScramSHA1:
		return "SCRAM-SHA-1"
	case ScramSHA256:
		return "SCRAM-SHA-256"
	}
	return ""
}

// State returns current exchange state.
func (s *Scram) State() MechanismState {
	return s.state
}

// ProcessChallenge evaluates a server challenge returning the response payload.
func (s *Scram) ProcessChallenge(_ context.Context, challenge []byte) ([]byte, *SASLError) {
	switch s.state {
	case StateNew:
		return s.handleStart()
	case StateInProgress:
		return s.handleServerFirst(string(challenge))
	case StateCompletedExpected:
		return s.handleServerFinal(string(challenge))
	default:
		return nil, NewSASLError(BadRequest, nil)
	}
}

func (s *Scram) handleStart() ([]byte, *SASLError) {
	if len(s.clientNonce) == 0 {
		s.clientNonce = uuid.New().String()
	}
	authzID := ""
	if len(s.creds.AuthorizationID) > 0 {
		authzID = "a=" + escapeSaslName(s.creds.AuthorizationID)
	}
	s.gs2Header = "n," + authzID + ","
	s.clientFirstBare = fmt.Sprintf("n=%s,r=%s", escapeSaslName(s.creds.Username), s.clientNonce)

	s.state = StateInProgress
	return []byte(s.gs2Header + s.clientFirstBare), nil
}

func (s *Scram) handleServerFirst(serverFirst string) ([]byte, *SASLError) {
	p := parseScramParameters(serverFirst)
	if p.hasParameter("m") {
		// unknown mandatory extension
		return nil, NewSASLError(BadChallenge, fmt.Errorf("mandatory extension present: %q", serverFirst))
	}
	srvNonce := p.getParameter("r")
	saltB64 := p.getParameter("s")
	iters := p.getParameter("i")

	if len(srvNonce) == 0 || len(saltB64) == 0 || len(iters) == 0 {
		return nil, NewSASLError(BadChallenge, fmt.Errorf("incomplete server first message: %q", serverFirst))
	}
	if !strings.HasPrefix(srvNonce, s.clientNonce) {
		return nil, NewSASLError(WrongNonce, nil)
	}
	salt, err := base64.StdEncoding.DecodeString(saltB64)
	if err != nil {
		return nil, NewSASLError(BadChallenge, fmt.Errorf("badly encoded salt: %q", saltB64))
	}
	iterationCount, err := strconv.Atoi(iters)
	if err != nil || iterationCount <= 0 {
		return nil, NewSASLError(BadChallenge, fmt.Errorf("invalid iteration count: %q", iters))
	}
	saltedPassword := SaltedPassword([]byte(s.creds.Password), salt, iterationCount, s.h)

	cBindInput := base64.StdEncoding.EncodeToString([]byte(s.gs2Header))
	clientFinalMessageBare := fmt.Sprintf("c=%s,r=%s", cBindInput, srvNonce)

	clientKey := s.hmac([]byte("Client Key"), saltedPassword)
	storedKey := s.hash(clientKey)
	authMessage := s.clientFirstBare + "," + serverFirst + "," + clientFinalMessageBare
	clientSignature := s.hmac([]byte(authMessage), storedKey)

	clientProof := make([]byte, len(clientKey))
	for i := 0; i < len(clientKey); i++ {
		clientProof[i] = clientKey[i] ^ clientSignature[i]
	}
	serverKey := s.hmac([]byte("Server Key"), saltedPassword)
	s.srvSignature = s.hmac([]byte(authMessage), serverKey)

	clientFinalMessage := clientFinalMessageBare + ",p=" + base64.StdEncoding.EncodeToString(clientProof)

	s.state = StateCompletedExpected
	return []byte(clientFinalMessage), nil
}

func (s *Scram) handleServerFinal(serverFinal string) ([]byte, *SASLError) {
	p := parseScramParameters(serverFinal)
	v := p.getParameter("v")
	if len(v) == 0 {
		return nil, NewSASLError(BadChallenge, fmt.Errorf("missing server signature: %q", serverFinal))
	}
	sig, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, NewSASLError(BadChallenge, fmt.Errorf("badly encoded server signature: %q", v))
	}
	if subtle.ConstantTimeCompare(sig, s.srvSignature) != 1 {
		return nil, NewSASLError(InvalidServerSignature, nil)
	}
	s.state = StateCompleted
	return nil, nil
}

func (s *Scram) hmac(b []byte, key []byte) []byte {
	m := hmac.New(s.h, key)
	m.Write(b)
	return m.Sum(nil)
}

func (s *Scram) hash(b []byte) []byte {
	h := s.h()
	h.Write(b)
	return h.Sum(nil)
}

// escapeSaslName encodes the characters a saslname attribute cannot carry
// verbatim, as mandated by RFC 5802 §5.1.
func escapeSaslName(name string) string {
	name = strings.ReplaceAll(name, "=", "=3D")
	return strings.ReplaceAll(name, ",", "=2C")
}

// SaltedPassword computes a salted password using the HMAC variant of PBKDF2.
//
// For OWASP recommendations for tuning PBKDF2 see:
// https://cheatsheetseries.owasp.org/cheatsheets/Password_Storage_Cheat_Sheet.html
func SaltedPassword(password, salt []byte, iterationCount int, h func() hash.Hash) []byte {
	hKeyLen := h().Size()
	return pbkdf2.Key(password, salt, iterationCount, hKeyLen, h)
}

// ScramProvider provides SCRAM mechanism instances for a given scram class.
type ScramProvider struct {
	tp ScramType
}

// NewScramProvider returns a scram mechanism provider given a scram class.
func NewScramProvider(scramType ScramType) *ScramProvider {
	return &ScramProvider{tp: scramType}
}

// Mechanism returns provided mechanism name.
func (p *ScramProvider) Mechanism() string {
	return NewScram(p.tp, Credentials{}).Mechanism()
}

// IsAllowedToUse tells whether the mechanism is usable given a credential set.
func (p *ScramProvider) IsAllowedToUse(creds Credentials) bool {
	return len(creds.Username) > 0 && len(creds.Password) > 0
}

// New returns a fresh single-use mechanism instance.
func (p *ScramProvider) New(creds Credentials) Mechanism {
	return NewScram(p.tp, creds)
}
