// Package report renders experiment results.
//
// Formats:
//   - text: aligned tables of P, payoffs, V and deployment, plus the
//     verification status
//   - LaTeX: one tabular per table, numbers printed with %.5f
//   - JSON: the full result in state and player order
//   - HTML: a bar chart of the value functions
//
// Negative zero is printed as zero in every format.
package report
