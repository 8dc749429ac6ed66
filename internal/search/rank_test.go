package search

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/spamid-be/internal/models"
)

func person(phone, name string) models.Person {
	return models.Person{ID: uuid.New(), PhoneNumber: phone, Name: models.StringPtr(name), Type: models.TypeUser}
}

func names(rows []Ranked) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.DisplayName)
	}
	return out
}

func TestRankTiersAndOrder(t *testing.T) {
	candidates := []models.Candidate{
		{Person: person("+1003", "Sally")},
		{Person: person("+1001", "alan")},
		{Person: person("+1002", "Alfred")},
		{Person: person("+1004", "Mal")},
	}

	got := Rank("al", candidates)
	require.Len(t, got, 4)
	assert.Equal(t, []string{"Alfred", "alan", "Mal", "Sally"}, names(got))
	assert.Equal(t, []Tier{TierPrefix, TierPrefix, TierSubstring, TierSubstring},
		[]Tier{got[0].Tier, got[1].Tier, got[2].Tier, got[3].Tier})
}

func TestRankAliasPrefixBeatsOwnName(t *testing.T) {
	alice := person("+2001", "Alice")
	got := Rank("All", []models.Candidate{{Person: alice, Aliases: []string{"Ally"}}})

	require.Len(t, got, 1)
	assert.Equal(t, "Ally", got[0].DisplayName)
	assert.Equal(t, TierPrefix, got[0].Tier)
	assert.Equal(t, alice.ID, got[0].Person.ID)
}

func TestRankChoosesBestAliasDeterministically(t *testing.T) {
	p := person("+3001", "Zed")
	candidates := []models.Candidate{{Person: p, Aliases: []string{"Old Bob", "bobcat", "Bob", "Bobby"}}}

	got := Rank("bob", candidates)
	require.Len(t, got, 1)
	assert.Equal(t, "Bob", got[0].DisplayName, "prefix aliases win, then smallest string")
	assert.Equal(t, TierPrefix, got[0].Tier)

	reordered := []models.Candidate{{Person: p, Aliases: []string{"Bobby", "bobcat", "Old Bob", "Bob"}}}
	assert.Equal(t, got, Rank("bob", reordered))
}

func TestRankSubstringAliasKeepsOwnPrefixTier(t *testing.T) {
	p := person("+4001", "Robert")
	got := Rank("rob", []models.Candidate{{Person: p, Aliases: []string{"Mr Robot"}}})

	require.Len(t, got, 1)
	assert.Equal(t, "Mr Robot", got[0].DisplayName)
	assert.Equal(t, TierPrefix, got[0].Tier)
}

// Unnamed placeholders surface under whatever alias matched. This exposure is
// intended and must not be filtered out.
func TestRankExposesAliasForUnnamedPlaceholder(t *testing.T) {
	placeholder := models.Person{ID: uuid.New(), PhoneNumber: "+5001", Type: models.TypeSpam}
	got := Rank("plumb", []models.Candidate{{Person: placeholder, Aliases: []string{"Plumber Joe"}}})

	require.Len(t, got, 1)
	assert.Equal(t, "Plumber Joe", got[0].DisplayName)
	assert.Equal(t, placeholder.PhoneNumber, got[0].Person.PhoneNumber)
}

func TestRankDropsNonMatchesAndDuplicates(t *testing.T) {
	p := person("+6001", "Nina")
	got := Rank("nin", []models.Candidate{
		{Person: p},
		{Person: p, Aliases: []string{"Nina B"}},
		{Person: person("+6002", "Oscar"), Aliases: []string{"Oz"}},
	})
	require.Len(t, got, 1)
	assert.Equal(t, p.ID, got[0].Person.ID)

	assert.Empty(t, Rank("", []models.Candidate{{Person: p}}))
}

func TestRankIsCaseInsensitiveButOrdersCaseSensitively(t *testing.T) {
	got := Rank("ANN", []models.Candidate{
		{Person: person("+7001", "anna")},
		{Person: person("+7002", "Anne")},
		{Person: person("+7003", "Joanne")},
	})
	assert.Equal(t, []string{"Anne", "anna", "Joanne"}, names(got))
}
