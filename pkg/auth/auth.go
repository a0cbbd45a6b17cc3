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
	"fmt"
)

// Credentials contains the identity material a mechanism proves to the server.
// Supplied by the session configuration and read-only to this package.
type Credentials struct {
	// Username is the authentication identity.
	Username string

	// Password is the authentication secret.
	Password string

	// AuthorizationID is the optional identity to act as, when it differs
	// from the authentication identity.
	AuthorizationID string
}

// IsZero returns true when no credential material has been configured.
func (c Credentials) IsZero() bool {
	return len(c.Username) == 0 && len(c.Password) == 0 && len(c.AuthorizationID) == 0
}

// MechanismState represents the progress of a single mechanism exchange.
type MechanismState uint8

const (
	// StateNew indicates the mechanism has not produced its initial response yet.
	StateNew MechanismState = iota

	// StateInProgress indicates the mechanism expects further server challenges.
	StateInProgress

	// StateCompletedExpected indicates the final client message has been
	// produced but the server terminating frame still carries data that must
	// be validated before the exchange is closed.
	StateCompletedExpected

	// StateCompleted indicates the exchange concluded on the client side.
	StateCompleted
)

// String returns MechanismState string representation.
func (s MechanismState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateInProgress:
		return "in_progress"
	case StateCompletedExpected:
		return "completed_expected"
	case StateCompleted:
		return "completed"
	default:
		return ""
	}
}

// Mechanism defines a single-use client side SASL exchange evaluator.
// An instance drives exactly one login attempt and is discarded afterwards.
type Mechanism interface {

	// Mechanism returns mechanism name.
	Mechanism() string

	// State returns current exchange state.
	State() MechanismState

	// ProcessChallenge evaluates a server challenge returning the response
	// payload to transmit. The initial invocation passes a nil challenge and
	// the terminating invocation passes the data carried on the server
	// success frame.
	ProcessChallenge(ctx context.Context, challenge []byte) ([]byte, *SASLError)
}

// Provider builds fresh mechanism instances bound to a credential set.
type Provider interface {

	// Mechanism returns provided mechanism name.
	Mechanism() string

	// IsAllowedToUse tells whether the mechanism is usable given a credential set.
	IsAllowedToUse(creds Credentials) bool

	// New returns a fresh single-use mechanism instance.
	New(creds Credentials) Mechanism
}

// SASLErrorReason defines the SASL error reason.
type SASLErrorReason uint8

const (
	// IncorrectEncoding represents a 'incorrect-encoding' authentication error.
	IncorrectEncoding SASLErrorReason = iota

	// MalformedRequest represents a 'malformed-request' authentication error.
	MalformedRequest

	// NotAuthorized represents a 'not-authorized' authentication error.
	NotAuthorized

	// TemporaryAuthFailure represents a 'temporary-auth-failure' authentication error.
	TemporaryAuthFailure

	// InvalidMechanism represents a 'invalid-mechanism' authentication error.
	InvalidMechanism

	// Aborted represents a 'aborted' authentication error.
	Aborted

	// CredentialsExpired represents a 'credentials-expired' authentication error.
	CredentialsExpired

	// AccountDisabled represents a 'account-disabled' authentication error.
	AccountDisabled

	// MechanismTooWeak represents a 'mechanism-too-weak' authentication error.
	MechanismTooWeak

	// EncryptionRequired represents a 'encryption-required' authentication error.
	EncryptionRequired

	// BadRequest represents a protocol violation on the exchange ordering.
	BadRequest

	// BadChallenge represents a malformed or unparseable server challenge.
	BadChallenge

	// WrongNonce represents a server nonce that does not extend the client nonce.
	WrongNonce

	// InvalidServerSignature represents a SCRAM server signature mismatch.
	InvalidServerSignature

	// ServerNotTrusted represents a failure to validate the server side proof.
	ServerNotTrusted
)

// String returns SASLErrorReason string representation.
func (r SASLErrorReason) String() string {
	switch r {
	case IncorrectEncoding:
		return "incorrect-encoding"
	case MalformedRequest:
		return "malformed-request"
	case NotAuthorized:
		return "not-authorized"
	case TemporaryAuthFailure:
		return "temporary-auth-failure"
	case InvalidMechanism:
		return "invalid-mechanism"
	case Aborted:
		return "aborted"
	case CredentialsExpired:
		return "credentials-expired"
	case AccountDisabled:
		return "account-disabled"
	case MechanismTooWeak:
		return "mechanism-too-weak"
	case EncryptionRequired:
		return "encryption-required"
	case BadRequest:
		return "bad-request"
	case BadChallenge:
		return "bad-challenge"
	case WrongNonce:
		return "wrong-nonce"
	case InvalidServerSignature:
		return "invalid-server-signature"
	case ServerNotTrusted:
		return "server-not-trusted"
	default:
		return ""
	}
}

var conditionReasons = map[string]SASLErrorReason{
	"incorrect-encoding":     IncorrectEncoding,
	"malformed-request":      MalformedRequest,
	"not-authorized":         NotAuthorized,
	"temporary-auth-failure": TemporaryAuthFailure,
	"invalid-mechanism":      InvalidMechanism,
	"aborted":                Aborted,
	"credentials-expired":    CredentialsExpired,
	"account-disabled":       AccountDisabled,
	"mechanism-too-weak":     MechanismTooWeak,
	"encryption-required":    EncryptionRequired,
}

// ReasonFromConditionName maps a server supplied failure condition token to
// its error reason. ok is false when the token is unrecognized.
func ReasonFromConditionName(name string) (reason SASLErrorReason, ok bool) {
	reason, ok = conditionReasons[name]
	return
}

// SASLError represents specific SASL error type.
type SASLError struct {
	Reason SASLErrorReason
	Err    error
}

// NewSASLError returns an initialized SASLError given a reason and an
// optional underlying cause.
func NewSASLError(reason SASLErrorReason, err error) *SASLError {
	return &SASLError{Reason: reason, Err: err}
}

// Error satisfies error interface.
func (se *SASLError) Error() string {
	if se.Err != nil {
		return fmt.Sprintf("%s: %v", se.Reason, se.Err)
	}
	return se.Reason.String()
}

// Unwrap returns SASLError underlying cause.
func (se *SASLError) Unwrap() error {
	return se.Err
}
