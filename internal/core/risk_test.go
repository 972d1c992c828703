package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRubric() Rubric {
	return Rubric{
		Categories: []string{"Secrecy", "Bribery"},
		Weights: map[string]float64{
			"Secrecy": 10,
			"Bribery": 9,
		},
		TrustedDomains: []string{"x.com"},
	}
}

func TestScoreInternalExchange(t *testing.T) {
	scorer := NewRiskScorer(testRubric())

	// Both sides on the trusted domain: no external flag
	assert.Equal(t, 10.0, scorer.Score([]string{"Secrecy"}, "a@x.com", "b@x.com"))
}

func TestScoreExternalExchange(t *testing.T) {
	scorer := NewRiskScorer(testRubric())

	assert.Equal(t, 11.0, scorer.Score([]string{"Secrecy"}, "a@x.com", "b@y.com"))
	assert.Equal(t, 11.0, scorer.Score([]string{"Secrecy"}, "a@y.com", "b@x.com"))
}

func TestScoreExternalFlagAddedOnce(t *testing.T) {
	rubric := testRubric()
	rubric.TrustedDomains = []string{"x.com", "z.com", "w.com"}
	scorer := NewRiskScorer(rubric)

	// Multiple trusted domains never stack more than one flag point
	assert.Equal(t, 11.0, scorer.Score([]string{"Secrecy"}, "a@q.com", "b@q.com"))
}

func TestScoreInternalOnAnyTrustedDomain(t *testing.T) {
	rubric := testRubric()
	rubric.TrustedDomains = []string{"x.com", "y.com"}
	scorer := NewRiskScorer(rubric)

	// A pair inside the second trusted domain is still internal
	assert.Equal(t, 0.0, scorer.Score(nil, "a@y.com", "b@y.com"))
	assert.Equal(t, 10.0, scorer.Score([]string{"Secrecy"}, "a@y.com", "b@y.com"))

	// Crossing between two trusted domains is not a same-domain exchange
	assert.Equal(t, 1.0, scorer.Score(nil, "a@x.com", "b@y.com"))
}

func TestScoreUnknownCategoryContributesZero(t *testing.T) {
	scorer := NewRiskScorer(testRubric())

	assert.Equal(t, 1.0, scorer.Score([]string{"Unknown"}, "a@x.com", "b@y.com"))
	assert.Equal(t, 0.0, scorer.Score([]string{"Unknown"}, "a@x.com", "b@x.com"))
}

func TestScoreMultipleCategories(t *testing.T) {
	scorer := NewRiskScorer(testRubric())

	assert.Equal(t, 19.0, scorer.Score([]string{"Secrecy", "Bribery"}, "a@x.com", "b@x.com"))
}

func TestScoreCategoryCaseAndWhitespace(t *testing.T) {
	scorer := NewRiskScorer(testRubric())

	assert.Equal(t, 10.0, scorer.Score([]string{" secrecy "}, "a@x.com", "b@x.com"))
}

func TestScoreDeterministic(t *testing.T) {
	scorer := NewRiskScorer(testRubric())

	first := scorer.Score([]string{"Secrecy", "Bribery"}, "a@x.com", "b@y.com")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, scorer.Score([]string{"Secrecy", "Bribery"}, "a@x.com", "b@y.com"))
	}
}

func TestScoreRounding(t *testing.T) {
	rubric := testRubric()
	rubric.Weights["Secrecy"] = 1.005
	rubric.Weights["Bribery"] = 2.004
	scorer := NewRiskScorer(rubric)

	assert.Equal(t, 3.01, scorer.Score([]string{"Secrecy", "Bribery"}, "a@x.com", "b@x.com"))
}

func TestExtractDomainHandlesMissingAt(t *testing.T) {
	assert.Equal(t, "x.com", extractDomain("A@X.com"))
	assert.Equal(t, "no-at-sign", extractDomain("no-at-sign"))
}
