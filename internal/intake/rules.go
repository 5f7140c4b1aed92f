package intake

import "strings"

// Rules rewrite a merged record before corrections apply. Application
// order is fixed: the category-to-provider mapping first, then the
// blocked-substring check on whatever provider resulted. Both steps are
// data-driven so deployments can reroute without a rebuild.
type Rules struct {
	// CategoryProviders maps a document category to the provider that
	// always handles it, overriding the extracted provider.
	CategoryProviders map[string]string `koanf:"category_providers"`

	// BlockedSubstrings are case-insensitive fragments that disqualify
	// a provider name.
	BlockedSubstrings []string `koanf:"blocked_substrings"`

	// FallbackProvider replaces a blocked provider.
	FallbackProvider string `koanf:"fallback_provider"`
}

// DefaultRules returns the stock routing table.
func DefaultRules() Rules {
	return Rules{
		CategoryProviders: map[string]string{
			"Prior Authorization": "Medical a-Records",
			"Medical a-Records":   "Prior a-Authorizations",
			"Forms":               "Forms A-staff",
		},
		BlockedSubstrings: []string{"azz", "fazal"},
		FallbackProvider:  "Asim Ali",
	}
}

// Apply rewrites the record in place.
func (ru Rules) Apply(r *Record) {
	if provider, ok := ru.CategoryProviders[r.Category]; ok {
		r.ProviderName = provider
	}

	lower := strings.ToLower(r.ProviderName)
	for _, blocked := range ru.BlockedSubstrings {
		if blocked == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(blocked)) {
			r.ProviderName = ru.FallbackProvider
			return
		}
	}
}
