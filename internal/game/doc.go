// Package game provides the data model shared by every stage of the
// coalition-formation pipeline.
//
// This package contains type definitions and small lookups only. All other
// internal packages import game; game imports nothing internal. This keeps the
// data model the foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Player and state labels are NFC-normalized before they are used as keys
//   - An acceptance entry that is not applicable is carried by Acceptance.Applicable,
//     never by a numeric sentinel such as 0 or NaN
//   - Inputs (StrategyTable, Protocol) are read-only once constructed
//   - Derived artifacts are produced once per run and never mutated afterwards
package game
