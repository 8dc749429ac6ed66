package search

import (
	"cmp"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/hongminglow/spamid-be/internal/models"
)

// Tier is a relevance bucket; lower is more relevant.
type Tier int

const (
	// TierPrefix: the own name or a matching alias starts with the query.
	TierPrefix Tier = 1
	// TierSubstring: the query appears inside the own name or an alias.
	TierSubstring Tier = 2
	// TierFallback is never produced by the inclusion filter. It is kept so
	// the ordering table stays total if a looser filter is added later.
	TierFallback Tier = 3
)

// Ranked is a candidate after display-name selection and tiering.
type Ranked struct {
	Person      models.Person
	DisplayName string
	Tier        Tier
}

// Rank filters and orders name-search candidates.
//
// A person is kept when its own name or some alias pointing at it contains
// query, ignoring case. When an alias matches, the display name is an alias
// rather than the own name: the best-tier alias, ties going to the smallest
// string. This surfaces how a number is commonly known even when its owner
// never registered, which is intended. Rows are ordered by tier, then display
// name (case-sensitive), and each person appears once.
func Rank(query string, candidates []models.Candidate) []Ranked {
	needle := fold(query)
	if needle == "" {
		return nil
	}

	seen := make(map[uuid.UUID]struct{}, len(candidates))
	out := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		if _, dup := seen[c.Person.ID]; dup {
			continue
		}

		own := c.Person.DisplayName()
		ownTier, ownOK := tierOf(own, needle)

		var (
			alias     string
			aliasTier Tier
			aliasOK   bool
		)
		for _, a := range c.Aliases {
			t, ok := tierOf(a, needle)
			if !ok {
				continue
			}
			if !aliasOK || t < aliasTier || (t == aliasTier && a < alias) {
				alias, aliasTier, aliasOK = a, t, true
			}
		}

		if !ownOK && !aliasOK {
			continue
		}
		seen[c.Person.ID] = struct{}{}

		r := Ranked{Person: c.Person, DisplayName: own, Tier: TierFallback}
		if ownOK {
			r.Tier = ownTier
		}
		if aliasOK {
			r.DisplayName = alias
			r.Tier = min(r.Tier, aliasTier)
		}
		out = append(out, r)
	}

	slices.SortStableFunc(out, func(a, b Ranked) int {
		return cmp.Or(
			cmp.Compare(a.Tier, b.Tier),
			strings.Compare(a.DisplayName, b.DisplayName),
			strings.Compare(a.Person.PhoneNumber, b.Person.PhoneNumber),
		)
	})
	return out
}

func tierOf(name, needle string) (Tier, bool) {
	folded := fold(name)
	switch {
	case strings.HasPrefix(folded, needle):
		return TierPrefix, true
	case strings.Contains(folded, needle):
		return TierSubstring, true
	default:
		return 0, false
	}
}

func fold(s string) string {
	return strings.ToLower(s)
}
