// Package store provides SQLite-backed storage for experiment runs.
//
// A run records the experiment name, approval mode, discount factor and the
// outcome of the equilibrium check, together with:
//   - transition_probs: every entry of the transition matrix
//   - values: value functions and static payoffs per state and player
//
// # Ordering
//
//   - Runs are listed by seq, a logical counter assigned on save
//   - Matrix rows and value cells keep the state and player order of the run
//     through explicit index columns, never by insertion order
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Run IDs are UUIDv7 strings, so IDs sort by creation time as well.
package store
