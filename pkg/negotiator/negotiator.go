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

package negotiator

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jackal-xmpp/runqueue/v2"
	"github.com/jackal-xmpp/sasl/pkg/auth"
	"github.com/jackal-xmpp/sasl/pkg/hook"
	saslog "github.com/jackal-xmpp/sasl/pkg/log"
	"github.com/jackal-xmpp/stravaganza/v2"
)

const saslNamespace = "urn:ietf:params:xml:ns:xmpp-sasl"

// ErrAttemptInProgress is returned by Login when an authentication attempt
// is already in flight for the session.
var ErrAttemptInProgress = errors.New("negotiator: authentication attempt already in progress")

// State represents negotiator state machine current value.
type State uint8

const (
	// Idle indicates no authentication attempt is in flight.
	Idle State = iota

	// AttemptInProgress indicates a mechanism exchange is active.
	AttemptInProgress

	// Succeeded indicates the last attempt concluded successfully.
	Succeeded

	// Failed indicates the last attempt concluded with a failure.
	Failed

	// Aborted indicates the last attempt was cut short by a local fault.
	Aborted
)

// String returns State string representation.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AttemptInProgress:
		return "attempt_in_progress"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Aborted:
		return "aborted"
	default:
		return ""
	}
}

// Transmitter hands outbound frames to the session transport.
// SendElement must not return before the element bytes are committed to the
// outbound path.
type Transmitter interface {
	SendElement(ctx context.Context, elem stravaganza.Element) error
}

// CredentialsProvider supplies the session credential material.
type CredentialsProvider interface {
	Credentials() auth.Credentials
}

// Negotiator drives one client side SASL authentication attempt end to end,
// routing inbound challenge, success and failure frames to the mechanism
// bound to the attempt.
type Negotiator struct {
	id     string
	reg    *auth.Registry
	cp     CredentialsProvider
	tx     Transmitter
	hk     *hook.Hooks
	logger kitlog.Logger
	rq     *runqueue.RunQueue

	mu       sync.RWMutex
	state    State
	active   auth.Mechanism
	identity string
}

// New returns an initialized negotiator given a session identifier and its
// collaborators. When logger is nil a default logfmt logger is used.
func New(
	id string,
	reg *auth.Registry,
	cp CredentialsProvider,
	tx Transmitter,
	hk *hook.Hooks,
	logger kitlog.Logger,
) *Negotiator {
	if logger == nil {
		logger = saslog.NewDefaultLogger("info", "logfmt")
	}
	return &Negotiator{
		id:     id,
		reg:    reg,
		cp:     cp,
		tx:     tx,
		hk:     hk,
		logger: kitlog.With(logger, "session_id", id),
		rq:     runqueue.New("negotiator:" + id),
	}
}

// ID returns negotiator session identifier.
func (n *Negotiator) ID() string { return n.id }

// State returns negotiator current state.
func (n *Negotiator) State() State {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.state
}

// Login starts a new authentication attempt selecting a mechanism against
// the server advertised names. ErrAttemptInProgress is returned when a
// previous attempt is still active.
func (n *Negotiator) Login(ctx context.Context, advertised []string) error {
	if n.activeMechanism() != nil {
		return ErrAttemptInProgress
	}
	creds := n.cp.Credentials()

	m := n.reg.Select(advertised, creds)
	if m == nil {
		// no frame is sent; the session stays idle
		level.Info(n.logger).Log("msg", "no usable authentication mechanism", "advertised", fmt.Sprintf("%v", advertised))
		return n.runFailedHook(ctx, "", auth.NewSASLError(auth.InvalidMechanism, nil))
	}
	identity := creds.AuthorizationID
	if len(identity) == 0 {
		identity = creds.Username
	}
	n.bindMechanism(m, identity)

	initialResponse, saslErr := m.ProcessChallenge(ctx, nil)
	if saslErr != nil {
		return n.abortAttempt(ctx, m.Mechanism(), saslErr)
	}
	authElem := stravaganza.NewBuilder("auth").
		WithAttribute(stravaganza.Namespace, saslNamespace).
		WithAttribute("mechanism", m.Mechanism()).
		WithText(encodePayload(initialResponse)).
		Build()

	if err := n.runHook(ctx, hook.SASLNegotiationStarted, &hook.SASLNegotiationInfo{
		SessionID: n.id,
		Mechanism: m.Mechanism(),
	}); err != nil {
		// unbind so a later Login may retry; no frame was sent
		n.clearActiveMechanism(Aborted)
		return err
	}
	level.Info(n.logger).Log("msg", "started authentication attempt", "mechanism", m.Mechanism())

	if err := n.tx.SendElement(ctx, authElem); err != nil {
		return n.abortAttempt(ctx, m.Mechanism(), auth.NewSASLError(auth.Aborted, err))
	}
	if m.State() == auth.StateCompletedExpected {
		n.scheduleFinishExpected(m.Mechanism())
	}
	return nil
}

// ProcessElement routes an inbound authentication namespace frame to the
// active mechanism. Frames outside the authentication namespace are ignored.
func (n *Negotiator) ProcessElement(ctx context.Context, elem stravaganza.Element) error {
	if elem.Attribute(stravaganza.Namespace) != saslNamespace {
		return nil
	}
	switch elem.Name() {
	case "challenge":
		return n.processChallenge(ctx, elem)
	case "success":
		return n.processSuccess(ctx, elem)
	case "failure":
		return n.processFailure(ctx, elem)
	}
	return nil
}

// Reset clears the active mechanism unconditionally. No frames are sent.
// Invoking Reset on an idle negotiator is a no-op.
func (n *Negotiator) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.active = nil
	n.identity = ""
	n.state = Idle
}

func (n *Negotiator) processChallenge(ctx context.Context, elem stravaganza.Element) error {
	m := n.activeMechanism()
	if m == nil {
		return nil
	}
	if m.State() == auth.StateCompleted {
		// extra challenge after completion
		return n.failAttempt(ctx, m.Mechanism(), auth.NewSASLError(auth.BadRequest, nil))
	}
	challenge, saslErr := decodePayload(elem.Text())
	if saslErr != nil {
		return n.failAttempt(ctx, m.Mechanism(), saslErr)
	}
	response, saslErr := m.ProcessChallenge(ctx, challenge)
	if saslErr != nil {
		return n.failAttempt(ctx, m.Mechanism(), saslErr)
	}
	respElem := stravaganza.NewBuilder("response").
		WithAttribute(stravaganza.Namespace, saslNamespace).
		WithText(encodePayload(response)).
		Build()

	if err := n.tx.SendElement(ctx, respElem); err != nil {
		return n.failAttempt(ctx, m.Mechanism(), auth.NewSASLError(auth.Aborted, err))
	}
	if m.State() == auth.StateCompletedExpected {
		n.scheduleFinishExpected(m.Mechanism())
	}
	return nil
}

func (n *Negotiator) processSuccess(ctx context.Context, elem stravaganza.Element) error {
	m := n.activeMechanism()
	if m == nil {
		return n.failAttempt(ctx, "", auth.NewSASLError(auth.BadRequest, nil))
	}
	if m.State() != auth.StateCompleted {
		payload, saslErr := decodePayload(elem.Text())
		if saslErr != nil {
			return n.failAttempt(ctx, m.Mechanism(), saslErr)
		}
		if _, saslErr = m.ProcessChallenge(ctx, payload); saslErr != nil {
			return n.failAttempt(ctx, m.Mechanism(), saslErr)
		}
	}
	if m.State() != auth.StateCompleted {
		// server claimed success but the exchange is not done on our side
		return n.failAttempt(ctx, m.Mechanism(), auth.NewSASLError(auth.ServerNotTrusted, nil))
	}
	identity := n.clearActiveMechanism(Succeeded)

	level.Info(n.logger).Log("msg", "authentication succeeded", "mechanism", m.Mechanism(), "authorization_id", identity)

	return n.runHook(ctx, hook.SASLNegotiationSucceeded, &hook.SASLNegotiationInfo{
		SessionID:       n.id,
		Mechanism:       m.Mechanism(),
		AuthorizationID: identity,
	})
}

func (n *Negotiator) processFailure(ctx context.Context, elem stravaganza.Element) error {
	var mechanism string
	if m := n.activeMechanism(); m != nil {
		mechanism = m.Mechanism()
	}
	reason := auth.NotAuthorized
	for _, child := range elem.AllChildren() {
		if child.Name() == "text" {
			continue
		}
		if r, ok := auth.ReasonFromConditionName(child.Name()); ok {
			reason = r
		}
		break
	}
	return n.failAttempt(ctx, mechanism, auth.NewSASLError(reason, nil))
}

// failAttempt converts a mechanism level fault into a failure event,
// clearing the active mechanism. No fault propagates past this boundary.
func (n *Negotiator) failAttempt(ctx context.Context, mechanism string, saslErr *auth.SASLError) error {
	n.clearActiveMechanism(Failed)
	return n.runFailedHook(ctx, mechanism, mapFailure(saslErr))
}

func (n *Negotiator) abortAttempt(ctx context.Context, mechanism string, saslErr *auth.SASLError) error {
	n.clearActiveMechanism(Aborted)
	if saslErr.Reason != auth.Aborted {
		saslErr = auth.NewSASLError(auth.Aborted, saslErr)
	}
	return n.runFailedHook(ctx, mechanism, saslErr)
}

func (n *Negotiator) runFailedHook(ctx context.Context, mechanism string, saslErr *auth.SASLError) error {
	level.Info(n.logger).Log("msg", "authentication failed", "mechanism", mechanism, "reason", saslErr.Reason.String())

	return n.runHook(ctx, hook.SASLNegotiationFailed, &hook.SASLNegotiationInfo{
		SessionID: n.id,
		Mechanism: mechanism,
		Error:     saslErr,
	})
}

// scheduleFinishExpected queues the finish expected notification so that it
// never fires before the frame bytes were committed to the outbound path.
func (n *Negotiator) scheduleFinishExpected(mechanism string) {
	n.rq.Run(func() {
		_ = n.runHook(context.Background(), hook.SASLFinishExpected, &hook.SASLNegotiationInfo{
			SessionID: n.id,
			Mechanism: mechanism,
		})
	})
}

func (n *Negotiator) runHook(ctx context.Context, hookName string, inf *hook.SASLNegotiationInfo) error {
	_, err := n.hk.Run(ctx, hookName, &hook.ExecutionContext{
		Info:   inf,
		Sender: n,
	})
	return err
}

func (n *Negotiator) bindMechanism(m auth.Mechanism, identity string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.active = m
	n.identity = identity
	n.state = AttemptInProgress
}

func (n *Negotiator) activeMechanism() auth.Mechanism {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.active
}

func (n *Negotiator) clearActiveMechanism(st State) (identity string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	identity = n.identity
	n.active = nil
	n.identity = ""
	n.state = st
	return
}

// mapFailure maps internal mechanism conditions to the surfaced protocol
// error, keeping the original condition as the cause.
func mapFailure(saslErr *auth.SASLError) *auth.SASLError {
	switch saslErr.Reason {
	case auth.BadChallenge:
		return auth.NewSASLError(auth.TemporaryAuthFailure, saslErr)
	case auth.WrongNonce, auth.InvalidServerSignature:
		return auth.NewSASLError(auth.ServerNotTrusted, saslErr)
	default:
		return saslErr
	}
}

func encodePayload(payload []byte) string {
	if len(payload) == 0 {
		return "="
	}
	return base64.StdEncoding.EncodeToString(payload)
}

func decodePayload(text string) ([]byte, *auth.SASLError) {
	if len(text) == 0 || text == "=" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, auth.NewSASLError(auth.BadChallenge, fmt.Errorf("badly encoded payload: %q", text))
	}
	return b, nil
}
