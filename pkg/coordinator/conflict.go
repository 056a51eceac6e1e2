package coordinator

import (
	"reflect"

	"github.com/pkg/errors"
)

// ConflictStrategy selects how competing agent responses for the same
// decision are reduced to one.
type ConflictStrategy string

const (
	MajorityVote   ConflictStrategy = "majority_vote"
	ExpertPriority ConflictStrategy = "expert_priority"
	Consensus      ConflictStrategy = "consensus"
	ManualOverride ConflictStrategy = "manual_override"
)

// Candidate is one agent's answer, tagged with producing-agent metadata.
type Candidate struct {
	AgentType      string      `json:"agent_type,omitempty"`
	Response       interface{} `json:"response"`
	ExpertiseScore float64     `json:"expertise_score,omitempty"`
	Preferred      bool        `json:"preferred,omitempty"` // Manual-override designation
}

// SimilarityFunc reports whether two responses count as agreeing for the
// consensus strategy.
type SimilarityFunc func(a, b interface{}) bool

func exactMatch(a, b interface{}) bool {
	return reflect.DeepEqual(a, b)
}

// ConflictResolver applies a configured strategy to an ordered candidate
// set. The zero strategy falls back to majority vote.
type ConflictResolver struct {
	strategy   ConflictStrategy
	similarity SimilarityFunc
}

func NewConflictResolver(strategy ConflictStrategy, similarity SimilarityFunc) *ConflictResolver {
	if strategy == "" {
		strategy = MajorityVote
	}
	if similarity == nil {
		similarity = exactMatch
	}
	return &ConflictResolver{strategy: strategy, similarity: similarity}
}

// Resolve picks one candidate. A single candidate short-circuits every
// strategy; an empty set is a contract violation.
func (r *ConflictResolver) Resolve(candidates []Candidate) (Candidate, error) {
	if len(candidates) == 0 {
		return Candidate{}, ErrEmptyConflictSet
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	switch r.strategy {
	case MajorityVote:
		return r.byMajority(candidates), nil
	case ExpertPriority:
		return r.byExpertise(candidates), nil
	case Consensus:
		return r.byConsensus(candidates), nil
	case ManualOverride:
		return r.byOverride(candidates), nil
	}
	return Candidate{}, errors.Errorf("unknown conflict strategy %q", r.strategy)
}

// byMajority groups candidates by response equality and returns the first
// member of the largest group; encounter order breaks ties.
func (r *ConflictResolver) byMajority(candidates []Candidate) Candidate {
	best, bestCount := 0, 0
	for i, c := range candidates {
		count := 0
		for _, other := range candidates {
			if reflect.DeepEqual(c.Response, other.Response) {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = i, count
		}
	}
	return candidates[best]
}

func (r *ConflictResolver) byExpertise(candidates []Candidate) Candidate {
	best := 0
	for i, c := range candidates {
		if c.ExpertiseScore > candidates[best].ExpertiseScore {
			best = i
		}
	}
	return candidates[best]
}

// byConsensus returns the first candidate agreeing with a strict majority of
// the set. With no quorum anywhere, the first candidate stands.
func (r *ConflictResolver) byConsensus(candidates []Candidate) Candidate {
	quorum := len(candidates)/2 + 1
	for _, c := range candidates {
		agree := 0
		for _, other := range candidates {
			if r.similarity(c.Response, other.Response) {
				agree++
			}
		}
		if agree >= quorum {
			return c
		}
	}
	return candidates[0]
}

func (r *ConflictResolver) byOverride(candidates []Candidate) Candidate {
	for _, c := range candidates {
		if c.Preferred {
			return c
		}
	}
	return candidates[0]
}
