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

package hook

import (
	"github.com/jackal-xmpp/sasl/pkg/auth"
)

const (
	// SASLNegotiationStarted hook runs when a SASL negotiation attempt begins,
	// right before the initial auth element is handed to the transport.
	SASLNegotiationStarted = "sasl.negotiation.started"

	// SASLNegotiationSucceeded hook runs when the server terminating frame is
	// received and all client side proof checks passed.
	SASLNegotiationSucceeded = "sasl.negotiation.succeeded"

	// SASLNegotiationFailed hook runs whenever a negotiation attempt concludes
	// with a failure, local or server declared.
	SASLNegotiationFailed = "sasl.negotiation.failed"

	// SASLFinishExpected hook runs after a final client message has been
	// committed to the transport and a terminating server frame is imminent.
	SASLFinishExpected = "sasl.finish.expected"
)

const (
	// AuthenticationStarted hook runs when session authorization status
	// transitions to in progress.
	AuthenticationStarted = "authentication.started"

	// AuthenticationSucceeded hook runs when session authorization status
	// transitions to authorized.
	AuthenticationSucceeded = "authentication.succeeded"

	// AuthenticationFailed hook runs when a negotiation failure knocks the
	// session back to not authorized.
	AuthenticationFailed = "authentication.failed"
)

// SASLNegotiationInfo contains all info associated to a SASL negotiation event.
type SASLNegotiationInfo struct {
	// SessionID is the negotiating session identifier.
	SessionID string

	// Mechanism is the name of the mechanism bound to the attempt.
	Mechanism string

	// AuthorizationID is the identity the attempt authorizes. Empty until the
	// attempt succeeds.
	AuthorizationID string

	// Error contains the failure condition. Only set on SASLNegotiationFailed.
	Error *auth.SASLError
}

// AuthenticationInfo contains all info associated to an authentication event.
type AuthenticationInfo struct {
	// SessionID is the session identifier.
	SessionID string

	// AuthorizationID is the authorized identity. Only set on AuthenticationSucceeded.
	AuthorizationID string

	// Error contains the failure condition. Only set on AuthenticationFailed.
	Error *auth.SASLError
}
