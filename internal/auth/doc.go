// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth owns the session token lifecycle.
//
// The token pair (access + refresh) lives behind a TokenStore and is only
// ever written or cleared as a unit: a state with exactly one valid token
// is unrepresentable. The Guard maintains session liveness around it as a
// small state machine:
//
//	unchecked -> checking -> authorized | unauthorized
//	authorized -> refreshing -> authorized | unauthorized
//
// Access token expiry is read from the JWT exp claim without signature
// verification; the backend remains the authority and an undecodable token
// is simply handed to the identity check, which will reject it if invalid.
// Any refresh or identity failure fails closed: both tokens are cleared
// and the state drops to unauthorized.
package auth
