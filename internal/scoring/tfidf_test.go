package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"python", "developer", "rest", "api", "experience"},
		Tokenize("Python developer with REST API experience."))
	assert.Equal(t, []string{"ci", "cd", "node", "js"}, Tokenize("a CI/CD, node.js"))
	assert.Equal(t, []string{"ünïcödé", "text_2"}, Tokenize("Ünïcödé text_2 x"))
	assert.Empty(t, Tokenize("the of and"))
}

func TestFitVocabularyIsSorted(t *testing.T) {
	t.Parallel()

	space := Fit([]string{"zeta alpha", "mid alpha"})
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, space.terms)
	assert.Equal(t, 3, space.Len())
}

func TestCosineBounds(t *testing.T) {
	t.Parallel()

	space := Fit([]string{"python sql", "python sql", "baking bread", ""})

	assert.InDelta(t, 1.0, space.Cosine(0, 1), 1e-12)
	assert.Equal(t, 0.0, space.Cosine(0, 2))
	assert.Equal(t, 0.0, space.Cosine(0, 3))
}

func TestTopTermsOrdering(t *testing.T) {
	t.Parallel()

	// "account" appears only in the job, "manager" in both: rarer terms weigh more.
	space := Fit([]string{"manager accounts", "account manager manage client accounts"})

	terms := space.TopTerms(1, 10)
	require.Len(t, terms, 5)
	assert.Equal(t, []string{"account", "client", "manage", "accounts", "manager"}, terms)
	assert.Equal(t, []string{"account", "client"}, space.TopTerms(1, 2))
}

func TestTopTermsTiesKeepVocabularyOrder(t *testing.T) {
	t.Parallel()

	space := Fit([]string{"", "rust go java"})

	assert.Equal(t, []string{"go", "java", "rust"}, space.TopTerms(1, 10))
	assert.Equal(t, []string{"go", "java"}, space.TopTerms(1, 2))
}
