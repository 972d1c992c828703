// Package prompt builds the structured classification request sent to
// an LLM and parses its structured response. All provider adapters
// share this one template and parser.
package prompt

import (
	"fmt"
	"strings"

	"github.com/mikey/llm-compliance-filter/internal/core"
)

const classificationTemplate = `You are a Bank Compliance officer analyzing email communication for potential policy violations.
Analyze the target email and flag it as compliant or non-compliant.
If non-compliant, classify it into the appropriate categories and provide reasoning.

Potential Categories:
%s

Analyze the following target email:
From: %s
To: %s
Subject: %s
Body: %s

Follow these steps:
1. Determine if the email is non-compliant or compliant.
2. If non-compliant, assign the most relevant compliance category.
   A single message can fall into multiple categories - assign all applicable ones.
3. Explain the reasoning.
4. Quote lines from the email as evidence.
5. Provide a confidence score on a scale of 1-5 (1 = not sure, 5 = very sure).

Here are example emails for context:
%s

Return your answer strictly in this JSON format:
{
    "non_compliant": "Yes/No",
    "Category": "<category or list of categories>",
    "reason": "<reason>",
    "evidence": ["example line 1", "example line 2"],
    "confidence_score": "<1-5>"
}
`

// Build renders the classification prompt for one email
func Build(req *core.ClassificationRequest) string {
	return fmt.Sprintf(classificationTemplate,
		renderCategories(req.Categories),
		req.Email.From,
		req.Email.To,
		req.Email.Subject,
		req.Email.Body,
		req.Examples,
	)
}

// renderCategories renders the rubric category list as bullets
func renderCategories(categories []string) string {
	lines := make([]string, len(categories))
	for i, category := range categories {
		lines[i] = "- " + category
	}
	return strings.Join(lines, "\n")
}
