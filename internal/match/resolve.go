package match

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Candidate is one row or option presented by the external UI. Handle is
// whatever the selection driver needs to act on the choice; this package
// never inspects it. ID is an optional numeric identifier (an MRN for
// patient rows); zero means not supplied.
type Candidate struct {
	Display string `json:"display"`
	Handle  any    `json:"-"`
	ID      int64  `json:"id,omitempty"`
}

// Result is the decision for one resolve call. It is produced fresh per
// call and never persisted.
type Result struct {
	Matched   bool       `json:"matched"`
	Score     float64    `json:"score"`
	Candidate *Candidate `json:"candidate,omitempty"`
	Reason    Reason     `json:"reason"`
}

// scoreEpsilon treats two float scores as equal for tie-breaking.
const scoreEpsilon = 1e-9

// ResolveIdentity picks the best-matching candidate for a person name.
// The matching candidate with the highest score wins. On an exact score
// tie the candidate with the numerically smaller ID is preferred when
// both sides supplied one; otherwise the first encountered stays. Empty
// input deterministically yields no match.
func ResolveIdentity(target string, candidates []Candidate, th Thresholds) Result {
	if len(candidates) == 0 {
		return Result{Reason: ReasonNoCandidates}
	}
	if Normalize(target) == "" {
		return Result{Reason: ReasonEmptyTarget}
	}

	best := Result{Reason: ReasonNoMatch}
	for i := range candidates {
		cand := candidates[i]
		ok, score, reason := MatchName(target, cand.Display, th)
		if !ok {
			continue
		}
		switch {
		case best.Candidate == nil,
			score > best.Score+scoreEpsilon:
			best = Result{Matched: true, Score: score, Candidate: &cand, Reason: reason}
		case score > best.Score-scoreEpsilon:
			// Exact tie: smaller identifier wins when both are supplied.
			if cand.ID != 0 && best.Candidate.ID != 0 && cand.ID < best.Candidate.ID {
				best = Result{Matched: true, Score: score, Candidate: &cand, Reason: reason}
			}
		}
	}
	return best
}

// OptionThreshold is the default acceptance score for ResolveOption, on
// the 0-100 scale the token-set ratio uses.
const OptionThreshold = 80

// ResolveOption ranks free-text options (document types, menu entries)
// purely by token-set overlap against the target and accepts the
// top-ranked option only if it clears threshold. Containment of one
// normalized string in the other accepts immediately with a full score.
// Ties keep the first option in input order.
func ResolveOption(target string, candidates []Candidate, threshold int) Result {
	if len(candidates) == 0 {
		return Result{Reason: ReasonNoCandidates}
	}
	tNorm := Normalize(target)
	if tNorm == "" {
		return Result{Reason: ReasonEmptyTarget}
	}

	var (
		bestScore = -1
		bestIdx   = -1
	)
	for i := range candidates {
		cNorm := Normalize(candidates[i].Display)
		if cNorm == "" {
			continue
		}
		if strings.Contains(cNorm, tNorm) || strings.Contains(tNorm, cNorm) {
			return Result{Matched: true, Score: 1.0, Candidate: &candidates[i], Reason: ReasonSubstring}
		}
		if score := fuzzy.TokenSetRatio(tNorm, cNorm); score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	if bestIdx >= 0 && bestScore >= threshold {
		return Result{
			Matched:   true,
			Score:     float64(bestScore) / 100.0,
			Candidate: &candidates[bestIdx],
			Reason:    ReasonTokenSet,
		}
	}
	result := Result{Reason: ReasonNoMatch}
	if bestScore >= 0 {
		result.Score = float64(bestScore) / 100.0
	}
	return result
}
