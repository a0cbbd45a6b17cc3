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

package authstate

import (
	"context"
	"sync"

	kitlog "github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/jackal-xmpp/sasl/pkg/hook"
)

// Status represents the coarse grained session authorization status.
type Status uint8

const (
	// NotAuthorized indicates no authorization has been granted.
	NotAuthorized Status = iota

	// InProgress indicates an authentication attempt is under way.
	InProgress

	// Authorized indicates the session credential has been proven.
	Authorized
)

// String returns Status string representation.
func (s Status) String() string {
	switch s {
	case NotAuthorized:
		return "not_authorized"
	case InProgress:
		return "in_progress"
	case Authorized:
		return "authorized"
	default:
		return ""
	}
}

// ResetScope qualifies how wide a reset reaches.
type ResetScope uint8

const (
	// ResetStream represents a transport level reconnect.
	ResetStream ResetScope = iota

	// ResetSession represents a broader session wide reset. Authorization is
	// a property of the underlying credential, so an authorized session
	// survives it.
	ResetSession
)

// Tracker derives the session authorization status from negotiation events,
// re-emitting coarser authentication events for the embedding application.
type Tracker struct {
	hk     *hook.Hooks
	logger kitlog.Logger

	mu     sync.RWMutex
	status Status
}

// NewTracker returns an initialized authorization status tracker.
func NewTracker(hk *hook.Hooks, logger kitlog.Logger) *Tracker {
	return &Tracker{
		hk:     hk,
		logger: logger,
	}
}

// Start registers the tracker negotiation hook handlers.
func (t *Tracker) Start() {
	t.hk.AddHook(hook.SASLNegotiationStarted, t.onNegotiationStarted, hook.DefaultPriority)
	t.hk.AddHook(hook.SASLNegotiationSucceeded, t.onNegotiationSucceeded, hook.DefaultPriority)
	t.hk.AddHook(hook.SASLNegotiationFailed, t.onNegotiationFailed, hook.DefaultPriority)
}

// Stop removes the tracker negotiation hook handlers.
func (t *Tracker) Stop() {
	t.hk.RemoveHook(hook.SASLNegotiationStarted, t.onNegotiationStarted)
	t.hk.RemoveHook(hook.SASLNegotiationSucceeded, t.onNegotiationSucceeded)
	t.hk.RemoveHook(hook.SASLNegotiationFailed, t.onNegotiationFailed)
}

// Status returns tracked authorization status.
func (t *Tracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// Reset forces the status back to not authorized. A stream scoped reset is
// unconditional; a broader reset only knocks back an attempt in progress.
func (t *Tracker) Reset(scope ResetScope) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if scope == ResetStream || t.status == InProgress {
		t.status = NotAuthorized
	}
}

func (t *Tracker) onNegotiationStarted(ctx context.Context, execCtx *hook.ExecutionContext) error {
	inf := execCtx.Info.(*hook.SASLNegotiationInfo)

	t.setStatus(InProgress)
	return t.runHook(ctx, hook.AuthenticationStarted, &hook.AuthenticationInfo{
		SessionID: inf.SessionID,
	})
}

func (t *Tracker) onNegotiationSucceeded(ctx context.Context, execCtx *hook.ExecutionContext) error {
	inf := execCtx.Info.(*hook.SASLNegotiationInfo)

	t.setStatus(Authorized)
	level.Info(t.logger).Log("msg", "session authorized", "session_id", inf.SessionID, "authorization_id", inf.AuthorizationID)

	return t.runHook(ctx, hook.AuthenticationSucceeded, &hook.AuthenticationInfo{
		SessionID:       inf.SessionID,
		AuthorizationID: inf.AuthorizationID,
	})
}

func (t *Tracker) onNegotiationFailed(ctx context.Context, execCtx *hook.ExecutionContext) error {
	inf := execCtx.Info.(*hook.SASLNegotiationInfo)

	t.setStatus(NotAuthorized)
	return t.runHook(ctx, hook.AuthenticationFailed, &hook.AuthenticationInfo{
		SessionID: inf.SessionID,
		Error:     inf.Error,
	})
}

func (t *Tracker) setStatus(status Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
}

func (t *Tracker) runHook(ctx context.Context, hookName string, inf *hook.AuthenticationInfo) error {
	_, err := t.hk.Run(ctx, hookName, &hook.ExecutionContext{
		Info:   inf,
		Sender: t,
	})
	return err
}
