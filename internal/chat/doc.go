// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat contains the data structures for conversation transcripts.
//
// A Transcript is an ordered sequence of role-tagged Turns, oldest first.
// Transcripts start non-empty: Seed() produces the fixed assistant greeting
// that every conversation begins with. Turns are immutable once appended;
// Append returns a new transcript rather than mutating in place, so UI
// snapshots stay stable while the session advances.
package chat
