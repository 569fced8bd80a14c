// Package events defines the typed per-call session event contract.
//
// Event kinds are grouped by producer-facing namespaces:
//
//   - call.*       lifecycle of the telephony media stream
//   - user_input.* recognition output for the caller's speech
//   - assistant_reply.* speakable text produced by the completion loop
//   - playback.*   audio delivery bookkeeping on the telephony leg
//   - tool_call.*  tool execution lifecycle
//
// Semantics used across the package:
//
//   - Interim: mutable point-in-time snapshot that can change while the
//     caller keeps speaking.
//   - Final: terminal immutable text for the current utterance.
//   - Token: opaque id marking one audio chunk as in flight to the caller.
package events
