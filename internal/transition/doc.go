// Package transition turns a strategy profile into the Markov chain it induces
// over coalition structures.
//
// For every (proposer, current, next) triple the engine combines three
// probabilities:
//
//	p_proposed = protocol[proposer] * proposal(current, proposer, next)
//	p_approved = approval rule applied to the committee's acceptances
//	P[current][next]    += p_proposed * p_approved
//	P[current][current] += p_proposed * (1 - p_approved)
//
// Two approval rules are supported:
//
//   - Unanimity: every committee member must accept. Committees of one or two
//     approvers are supported; larger committees are rejected with an
//     approval committee error.
//   - Majority: committees are capped at two approvers. With two approvers the
//     transition is classified into one of three cases (see ClassifyMajority)
//     and each case has its own formula.
//
// The status quo is always approved. A transition with an empty committee is
// never approved; the engine records a Warning for it because it usually means
// the strategy table is missing data.
//
// After all triples are processed a single post-condition check runs (see
// Validate). In strict mode (the default) a failed check is returned as a
// numerical inconsistency error; in lenient mode it is logged and attached to
// the Result.
//
// The engine is single-threaded and deterministic. Triples are processed in
// player order, then state order.
package transition
