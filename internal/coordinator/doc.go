// Package coordinator turns navigation intents into animations and adds
// the reliability the queue does not have.
//
// Architecture:
//
//	┌───────────────────────────────────────────────────────────┐
//	│                   Coordinator                              │
//	│                                                            │
//	│  Validate ──▶ action whitelist, target resolvable,         │
//	│               levenshtein suggestions, busy advisory       │
//	│                                                            │
//	│  Execute ──▶ Performer ──▶ queue ticket                    │
//	│     │ failure (retryable)                                  │
//	│     ▼                                                      │
//	│  retry queue ──▶ RunRetryProcessor (attempt × backoff)     │
//	│     │ exhausted                                            │
//	│     ▼                                                      │
//	│  Fallback ──▶ instant host writes                          │
//	│                                                            │
//	│  ExecuteCoordinated: navigate/scroll → modal →             │
//	│                      highlight → focus                     │
//	└───────────────────────────────────────────────────────────┘
//
// Validation failures and missing targets are final. Everything else is
// retried, and a command that runs out of attempts always lands its
// resting state through the fallback.
//
// Two coordinated commands may animate the same element; the later write
// in a frame wins.
package coordinator
