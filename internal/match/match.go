// Package match decides whether a target string names the same thing as
// one of a list of noisy candidates scraped from a UI. It is pure: no
// I/O, no shared state, safe for concurrent use. Callers own all retry
// and click mechanics.
package match

import (
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Reason explains a match decision.
type Reason string

const (
	// ReasonTokenSet: the order-independent token overlap cleared the
	// base threshold.
	ReasonTokenSet Reason = "token_set"
	// ReasonFirstRelaxed: first tokens are equal and the token overlap
	// cleared the relaxed threshold.
	ReasonFirstRelaxed Reason = "first_token_relaxed"
	// ReasonSurnamePartial: first tokens are equal and a surname token
	// aligned strongly inside the candidate.
	ReasonSurnamePartial Reason = "first_token_surname_partial"
	// ReasonPartial: the best-aligned substring overlap cleared the base
	// threshold.
	ReasonPartial Reason = "partial"
	// ReasonSubstring: one normalized string contains the other.
	ReasonSubstring Reason = "substring"
	// ReasonNoMatch: no rule matched.
	ReasonNoMatch Reason = "no_match"
	// ReasonNoCandidates: the candidate list was empty.
	ReasonNoCandidates Reason = "no_candidates"
	// ReasonEmptyTarget: the target normalized to the empty string.
	ReasonEmptyTarget Reason = "empty_target"
)

// Thresholds tunes the tiered decision rules. All values are in [0,1].
type Thresholds struct {
	// Base is the score required by the standalone token-set and
	// substring-overlap rules.
	Base float64 `koanf:"base"`
	// Relaxed is the token-set score required when first tokens already
	// agree.
	Relaxed float64 `koanf:"relaxed"`
	// SurnamePartial is the substring-overlap score a single surname
	// token must reach inside the candidate.
	SurnamePartial float64 `koanf:"surname_partial"`
}

// DefaultThresholds returns the production defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{Base: 0.70, Relaxed: 0.60, SurnamePartial: 0.80}
}

// TokenSetScore is the order-independent token overlap of the normalized
// inputs, in [0,1].
func TokenSetScore(a, b string) float64 {
	return float64(fuzzy.TokenSetRatio(Normalize(a), Normalize(b))) / 100.0
}

// PartialScore is the best-aligned substring overlap of the normalized
// inputs, in [0,1].
func PartialScore(a, b string) float64 {
	return float64(fuzzy.PartialRatio(Normalize(a), Normalize(b))) / 100.0
}

// MatchName reports whether candidate is a strong enough rendition of
// target. The rules are evaluated in order and the first hit wins:
//
//  1. token-set score >= Base
//  2. equal first tokens and token-set score >= Relaxed
//  3. equal first tokens and any surname token aligns inside the
//     candidate at >= SurnamePartial
//  4. partial score >= Base
//
// The returned score is the one the winning rule used (rule 3 reports
// the higher of the two full-string scores).
func MatchName(target, candidate string, th Thresholds) (bool, float64, Reason) {
	tNorm := Normalize(target)
	cNorm := Normalize(candidate)
	if tNorm == "" {
		return false, 0, ReasonEmptyTarget
	}
	if cNorm == "" {
		return false, 0, ReasonNoMatch
	}

	tokenSet := float64(fuzzy.TokenSetRatio(tNorm, cNorm)) / 100.0
	partial := float64(fuzzy.PartialRatio(tNorm, cNorm)) / 100.0

	if tokenSet >= th.Base {
		return true, tokenSet, ReasonTokenSet
	}

	firstOK := FirstToken(target) != "" && FirstToken(target) == FirstToken(candidate)
	if firstOK && tokenSet >= th.Relaxed {
		return true, tokenSet, ReasonFirstRelaxed
	}
	if firstOK {
		for _, surname := range SurnameTokens(target) {
			if float64(fuzzy.PartialRatio(surname, cNorm))/100.0 >= th.SurnamePartial {
				return true, max(tokenSet, partial), ReasonSurnamePartial
			}
		}
	}

	if partial >= th.Base {
		return true, partial, ReasonPartial
	}
	return false, tokenSet, ReasonNoMatch
}
