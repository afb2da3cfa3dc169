package game

// Acceptance is the outcome of an acceptance lookup.
//
// Applicable=false means the responder is not part of the approval committee
// for the transition. That is a different statement from Prob == 0, which says
// the responder is on the committee and always rejects.
type Acceptance struct {
	Prob       float64
	Applicable bool
}

// Accepts returns an applicable acceptance entry with probability p.
func Accepts(p float64) Acceptance {
	return Acceptance{Prob: p, Applicable: true}
}

// NotApplicable returns the marker for "responder is not a required approver".
func NotApplicable() Acceptance {
	return Acceptance{}
}

// Strategies is the abstract strategy lookup consumed by the pipeline.
// The core never parses a file format; loaders produce a Strategies value.
type Strategies interface {
	// ProposalProbability is the probability that proposer, if selected in
	// state, proposes next.
	ProposalProbability(state string, proposer Player, next string) float64

	// AcceptanceProbability is responder's acceptance of proposer's move
	// from state to next, or NotApplicable.
	AcceptanceProbability(state string, responder, proposer Player, next string) Acceptance
}

// ProposalKey keys a proposal entry.
type ProposalKey struct {
	State    string
	Proposer Player
	Next     string
}

// AcceptanceKey keys an acceptance entry.
type AcceptanceKey struct {
	State     string
	Responder Player
	Proposer  Player
	Next      string
}

// StrategyTable is the in-memory Strategies implementation: an explicit
// mapping from tuple keys to probabilities.
//
// Build it with the Set methods, then treat it as read-only.
type StrategyTable struct {
	proposals   map[ProposalKey]float64
	acceptances map[AcceptanceKey]float64
}

// NewStrategyTable creates an empty table.
func NewStrategyTable() *StrategyTable {
	return &StrategyTable{
		proposals:   make(map[ProposalKey]float64),
		acceptances: make(map[AcceptanceKey]float64),
	}
}

// SetProposal records the probability that proposer proposes next in state.
func (t *StrategyTable) SetProposal(state string, proposer Player, next string, p float64) {
	t.proposals[ProposalKey{State: NormalizeLabel(state), Proposer: NewPlayer(string(proposer)), Next: NormalizeLabel(next)}] = p
}

// SetAcceptance records responder's acceptance probability and thereby places
// responder on the approval committee for the transition.
func (t *StrategyTable) SetAcceptance(state string, responder, proposer Player, next string, p float64) {
	key := AcceptanceKey{
		State:     NormalizeLabel(state),
		Responder: NewPlayer(string(responder)),
		Proposer:  NewPlayer(string(proposer)),
		Next:      NormalizeLabel(next),
	}
	t.acceptances[key] = p
}

// ProposalProbability implements Strategies. Missing entries read as 0.
func (t *StrategyTable) ProposalProbability(state string, proposer Player, next string) float64 {
	return t.proposals[ProposalKey{State: state, Proposer: proposer, Next: next}]
}

// AcceptanceProbability implements Strategies.
func (t *StrategyTable) AcceptanceProbability(state string, responder, proposer Player, next string) Acceptance {
	p, ok := t.acceptances[AcceptanceKey{State: state, Responder: responder, Proposer: proposer, Next: next}]
	if !ok {
		return NotApplicable()
	}
	return Accepts(p)
}

// ProposalKeys returns every recorded proposal key.
func (t *StrategyTable) ProposalKeys() []ProposalKey {
	keys := make([]ProposalKey, 0, len(t.proposals))
	for k := range t.proposals {
		keys = append(keys, k)
	}
	return keys
}

// AcceptanceKeys returns every recorded acceptance key.
func (t *StrategyTable) AcceptanceKeys() []AcceptanceKey {
	keys := make([]AcceptanceKey, 0, len(t.acceptances))
	for k := range t.acceptances {
		keys = append(keys, k)
	}
	return keys
}

// EffectiveAcceptance resolves the acceptance probability used for a committee
// member. An applicable entry yields its probability. A proposer sitting on its
// own committee without an entry consents by proposing. Anything else reads 0.
func EffectiveAcceptance(s Strategies, state string, responder, proposer Player, next string) float64 {
	acc := s.AcceptanceProbability(state, responder, proposer, next)
	if acc.Applicable {
		return acc.Prob
	}
	if responder == proposer {
		return 1
	}
	return 0
}
