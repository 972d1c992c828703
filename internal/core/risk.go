package core

import (
	"math"
	"strings"
)

// RiskScorer computes deterministic risk scores from verdict categories
// and the sender/receiver address pair
type RiskScorer struct {
	weights        map[string]float64
	trustedDomains []string
}

// NewRiskScorer creates a risk scorer from the rubric. Weight keys and
// trusted domains are normalized to lowercase at construction, so
// category lookup is case-insensitive (config loaders lowercase map
// keys anyway).
func NewRiskScorer(rubric Rubric) *RiskScorer {
	weights := make(map[string]float64, len(rubric.Weights))
	for category, weight := range rubric.Weights {
		weights[strings.ToLower(category)] = weight
	}
	trusted := make([]string, len(rubric.TrustedDomains))
	for i, domain := range rubric.TrustedDomains {
		trusted[i] = strings.ToLower(strings.TrimSpace(domain))
	}
	return &RiskScorer{
		weights:        weights,
		trustedDomains: trusted,
	}
}

// Score sums the configured weight of every known category and adds a
// single external-communication point unless some trusted domain
// covers both sender and receiver. Unknown categories contribute zero.
// The result is rounded to 2 decimal places.
func (s *RiskScorer) Score(categories []string, sender, receiver string) float64 {
	senderDomain := extractDomain(sender)
	receiverDomain := extractDomain(receiver)

	external := 1.0
	for _, domain := range s.trustedDomains {
		if senderDomain == domain && receiverDomain == domain {
			external = 0.0
			break
		}
	}

	score := 0.0
	for _, category := range categories {
		if weight, ok := s.weights[strings.ToLower(strings.TrimSpace(category))]; ok {
			score += weight
		}
	}

	return math.Round((score+external)*100) / 100
}

// extractDomain returns the lowercase part after the last @, or the
// whole lowercase address when no @ is present
func extractDomain(address string) string {
	parts := strings.Split(address, "@")
	return strings.ToLower(parts[len(parts)-1])
}
