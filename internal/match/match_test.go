package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchNameRules(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name      string
		target    string
		candidate string
		wantOK    bool
		reason    Reason
	}{
		{"identical", "John Doe", "John Doe", true, ReasonTokenSet},
		{"reordered tokens", "Doe, John", "John Doe", true, ReasonTokenSet},
		{"extra middle name", "John Doe", "John Michael Doe", true, ReasonTokenSet},
		{"first token plus surname fragment", "Smithson, John", "John Smithso", true, ReasonTokenSet},
		{"unrelated", "John Doe", "Alice Wonderland", false, ReasonNoMatch},
		{"empty target", "", "John Doe", false, ReasonEmptyTarget},
		{"punctuation-only target", "!!!", "John Doe", false, ReasonEmptyTarget},
		{"empty candidate", "John Doe", "", false, ReasonNoMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, score, reason := MatchName(tt.target, tt.candidate, th)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.reason, reason)
			if ok {
				assert.Greater(t, score, 0.0)
				assert.LessOrEqual(t, score, 1.0)
			}
		})
	}
}

func TestMatchNameRuleOrder(t *testing.T) {
	// With Base raised above 1.0, rule 1 can never fire and the decision
	// falls through to the first-token rules.
	th := Thresholds{Base: 1.1, Relaxed: 0.60, SurnamePartial: 0.80}

	ok, _, reason := MatchName("Doe, John", "John Doe", th)
	assert.True(t, ok)
	assert.Equal(t, ReasonFirstRelaxed, reason)

	// Relaxed out of reach too: the surname-partial rule decides.
	th.Relaxed = 1.1
	ok, _, reason = MatchName("Doe, John", "John Doe", th)
	assert.True(t, ok)
	assert.Equal(t, ReasonSurnamePartial, reason)
}

func TestMatchNameSurnamePartialScore(t *testing.T) {
	th := Thresholds{Base: 1.1, Relaxed: 1.1, SurnamePartial: 0.80}
	ok, score, reason := MatchName("Doe, John", "John Doe Jr", th)
	require.True(t, ok)
	assert.Equal(t, ReasonSurnamePartial, reason)
	// Rule 3 reports the higher of the two full-string scores.
	assert.GreaterOrEqual(t, score, TokenSetScore("Doe, John", "John Doe Jr"))
	assert.GreaterOrEqual(t, score, PartialScore("Doe, John", "John Doe Jr"))
}

func TestMatchScoreMonotonicity(t *testing.T) {
	// Both candidates pass rule 1; the one with the higher token-set
	// overlap must not report a lower score.
	th := DefaultThresholds()
	target := "John Michael Doe"

	okA, scoreA, reasonA := MatchName(target, "John Michael Doe", th)
	okB, scoreB, reasonB := MatchName(target, "John Doe", th)
	require.True(t, okA)
	require.True(t, okB)
	require.Equal(t, ReasonTokenSet, reasonA)
	require.Equal(t, ReasonTokenSet, reasonB)

	require.GreaterOrEqual(t,
		TokenSetScore(target, "John Michael Doe"),
		TokenSetScore(target, "John Doe"))
	assert.GreaterOrEqual(t, scoreA, scoreB)
}

func TestResolveIdentity(t *testing.T) {
	th := DefaultThresholds()

	t.Run("best score wins", func(t *testing.T) {
		got := ResolveIdentity("John Doe", []Candidate{
			{Display: "Alice Wonderland", ID: 1},
			{Display: "John Doe", ID: 2},
			{Display: "John Dough", ID: 3},
		}, th)
		require.True(t, got.Matched)
		require.NotNil(t, got.Candidate)
		assert.Equal(t, int64(2), got.Candidate.ID)
	})

	t.Run("tie prefers smaller identifier", func(t *testing.T) {
		got := ResolveIdentity("John Doe", []Candidate{
			{Display: "John Doe", ID: 5},
			{Display: "John Doe", ID: 3},
		}, th)
		require.True(t, got.Matched)
		assert.Equal(t, int64(3), got.Candidate.ID)
	})

	t.Run("tie without identifiers keeps input order", func(t *testing.T) {
		got := ResolveIdentity("John Doe", []Candidate{
			{Display: "John Doe", Handle: "first"},
			{Display: "John Doe", Handle: "second"},
		}, th)
		require.True(t, got.Matched)
		assert.Equal(t, "first", got.Candidate.Handle)
	})

	t.Run("empty candidate list", func(t *testing.T) {
		got := ResolveIdentity("John Doe", nil, th)
		assert.False(t, got.Matched)
		assert.Equal(t, ReasonNoCandidates, got.Reason)
	})

	t.Run("empty target", func(t *testing.T) {
		got := ResolveIdentity("", []Candidate{{Display: "John Doe"}}, th)
		assert.False(t, got.Matched)
		assert.Equal(t, ReasonEmptyTarget, got.Reason)
	})

	t.Run("no candidate clears threshold", func(t *testing.T) {
		got := ResolveIdentity("John Doe", []Candidate{
			{Display: "Completely Different"},
		}, th)
		assert.False(t, got.Matched)
		assert.Equal(t, ReasonNoMatch, got.Reason)
		assert.Nil(t, got.Candidate)
	})
}

func TestResolveOption(t *testing.T) {
	options := func(texts ...string) []Candidate {
		out := make([]Candidate, len(texts))
		for i, s := range texts {
			out[i] = Candidate{Display: s}
		}
		return out
	}

	t.Run("substring containment accepts immediately", func(t *testing.T) {
		got := ResolveOption("Labs", options("Radiology", "Labs / Pathology", "Consult"), OptionThreshold)
		require.True(t, got.Matched)
		assert.Equal(t, ReasonSubstring, got.Reason)
		assert.Equal(t, "Labs / Pathology", got.Candidate.Display)
		assert.Equal(t, 1.0, got.Score)
	})

	t.Run("fuzzy top rank above threshold", func(t *testing.T) {
		got := ResolveOption("Prior Authorization", options("Consult", "Authorization, Prior", "Referral"), OptionThreshold)
		require.True(t, got.Matched)
		assert.Equal(t, "Authorization, Prior", got.Candidate.Display)
	})

	t.Run("below threshold returns no match", func(t *testing.T) {
		got := ResolveOption("Sleep Study", options("Consult", "Referral"), OptionThreshold)
		assert.False(t, got.Matched)
		assert.Equal(t, ReasonNoMatch, got.Reason)
	})

	t.Run("tie keeps input order", func(t *testing.T) {
		got := ResolveOption("Medical Records", options("Medical Records Request", "Request Medical Records"), OptionThreshold)
		require.True(t, got.Matched)
		assert.Equal(t, "Medical Records Request", got.Candidate.Display)
	})

	t.Run("empty list", func(t *testing.T) {
		got := ResolveOption("Labs", nil, OptionThreshold)
		assert.False(t, got.Matched)
		assert.Equal(t, ReasonNoCandidates, got.Reason)
	})

	t.Run("empty target", func(t *testing.T) {
		got := ResolveOption("", options("Labs"), OptionThreshold)
		assert.False(t, got.Matched)
		assert.Equal(t, ReasonEmptyTarget, got.Reason)
	})
}
