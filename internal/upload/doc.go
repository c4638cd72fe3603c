// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package upload tracks one evaluation document upload through server-side
// processing.
//
// A job's identity (a UUID) is generated client-side before the upload
// request is sent, so progress can be polled without waiting for the
// server to acknowledge. The Poller samples the progress endpoint once per
// second and maintains a smoothed display percentage: regressions and
// forward jumps over 20 points are eased toward the target at 10% of the
// remaining gap per animation tick instead of applied directly.
//
// Only one job polls at a time. The Poller hands back an explicitly
// cancellable Task; stopping the task is the single teardown point for
// its timers.
package upload
