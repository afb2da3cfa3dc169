package transition

import (
	"fmt"

	"github.com/roach88/farsight/internal/game"
)

// MajorityCase tags how a two-approver committee decides under the majority rule.
type MajorityCase int

const (
	// CaseUnknown is never produced by ClassifyMajority. It exists so that the
	// zero value of MajorityCase is not a valid case.
	CaseUnknown MajorityCase = iota

	// CaseNewcomers (A): new non-proposer members join, and the proposer is
	// either not in the current coalition or stays in it. Exactly the new
	// non-proposer members must accept.
	CaseNewcomers

	// CaseRegroup (B): new non-proposer members join while the proposer leaves
	// the current coalition. Every member of the next coalition must accept.
	CaseRegroup

	// CaseAnyIncumbent (C): nobody new joins apart from the proposer. At least
	// one of the two approvers must accept.
	CaseAnyIncumbent
)

func (c MajorityCase) String() string {
	switch c {
	case CaseNewcomers:
		return "newcomers"
	case CaseRegroup:
		return "regroup"
	case CaseAnyIncumbent:
		return "any-incumbent"
	default:
		return "unknown"
	}
}

// Classification is the outcome of ClassifyMajority.
type Classification struct {
	Case MajorityCase

	// Newcomers are the members of next that are not in current, excluding
	// the proposer, in next's member order.
	Newcomers []game.Player
}

// ClassifyMajority decides which majority case applies to proposer's move
// from current to next. It is a pure function of the membership sets.
func ClassifyMajority(proposer game.Player, current, next game.State) Classification {
	var newcomers []game.Player
	for _, m := range next.Members {
		if m != proposer && !current.Has(m) {
			newcomers = append(newcomers, m)
		}
	}

	inCurrent := current.Has(proposer)
	inNext := next.Has(proposer)

	switch {
	case len(newcomers) == 0:
		return Classification{Case: CaseAnyIncumbent}
	case !inCurrent || inNext:
		return Classification{Case: CaseNewcomers, Newcomers: newcomers}
	default:
		return Classification{Case: CaseRegroup, Newcomers: newcomers}
	}
}

// majorityApproval computes p_approved under the majority rule for a
// non-status-quo transition with a non-empty committee.
func majorityApproval(table game.Strategies, key game.TransitionKey, current, next game.State, committee []game.Player) (float64, error) {
	switch len(committee) {
	case 1:
		return acceptance(table, key, committee[0]), nil
	case 2:
	default:
		return 0, game.NewApprovalCommitteeError(key, len(committee),
			fmt.Sprintf("majority rule supports at most 2 approvers, committee has %d", len(committee)))
	}

	c := ClassifyMajority(key.Proposer, current, next)
	switch c.Case {
	case CaseNewcomers:
		return product(table, key, c.Newcomers), nil
	case CaseRegroup:
		return product(table, key, next.Members), nil
	case CaseAnyIncumbent:
		return anyIncumbentApproval(table, key, committee), nil
	default:
		return 0, game.NewApprovalCommitteeError(key, len(committee),
			fmt.Sprintf("unreachable majority case %s", c.Case))
	}
}

// anyIncumbentApproval is the probability that at least one non-proposer
// member of the committee accepts. A proposer listed on its own committee
// does not vote on its proposal. The inclusion-exclusion below is exact only
// for two approvers.
func anyIncumbentApproval(table game.Strategies, key game.TransitionKey, committee []game.Player) float64 {
	incumbents := make([]game.Player, 0, len(committee))
	for _, m := range committee {
		if m != key.Proposer {
			incumbents = append(incumbents, m)
		}
	}
	if len(incumbents) == 1 {
		return acceptance(table, key, incumbents[0])
	}
	a := acceptance(table, key, incumbents[0])
	b := acceptance(table, key, incumbents[1])
	return a + b - a*b
}
