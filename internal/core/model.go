package core

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Classification values used throughout the system
const (
	ClassificationCompliant    = "Compliant"
	ClassificationNonCompliant = "Non-Compliant"

	// CategoryCompliant is the single category assigned to compliant emails
	CategoryCompliant = "Compliant"
)

// Email represents an email message under evaluation
type Email struct {
	Date    string
	From    string
	To      string
	Subject string
	Body    string
}

// CategorySet is the canonical representation of compliance categories:
// an ordered, de-duplicated list of category names. Every ingestion
// boundary normalizes string/list/absent input into this form.
type CategorySet []string

// NewCategorySet builds a CategorySet from raw names, trimming whitespace,
// dropping empties and de-duplicating while preserving order
func NewCategorySet(names ...string) CategorySet {
	seen := make(map[string]struct{}, len(names))
	set := make(CategorySet, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		set = append(set, name)
	}
	return set
}

// SplitCategoryField splits a comma-joined category field into names
func SplitCategoryField(field string) []string {
	return strings.Split(field, ",")
}

// NormalizeCategories converts a classification plus raw category names
// into the canonical set. A compliant classification, or an empty/absent
// category field, always yields exactly {Compliant}.
func NormalizeCategories(classification string, raw ...string) CategorySet {
	if strings.EqualFold(strings.TrimSpace(classification), ClassificationCompliant) {
		return CategorySet{CategoryCompliant}
	}
	set := NewCategorySet(raw...)
	if len(set) == 0 {
		return CategorySet{CategoryCompliant}
	}
	return set
}

// Contains reports whether the set includes the given category name
func (cs CategorySet) Contains(name string) bool {
	for _, c := range cs {
		if c == name {
			return true
		}
	}
	return false
}

// Key returns an order-independent identity for the set, used to group
// near-duplicate examples during diverse retrieval
func (cs CategorySet) Key() string {
	sorted := make([]string, len(cs))
	copy(sorted, cs)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

// String renders the set as a comma-joined list
func (cs CategorySet) String() string {
	return strings.Join(cs, ", ")
}

// ExampleRecord is a stored, labeled email used as retrieval context
type ExampleRecord struct {
	ID             string
	From           string
	To             string
	Subject        string
	Body           string
	Classification string
	Categories     CategorySet
	CreatedAt      time.Time
}

// SampleRow is one already-validated row from the tabular input boundary.
// Classification and Category are empty for query emails.
type SampleRow struct {
	Date           string
	From           string
	To             string
	Subject        string
	Body           string
	Classification string
	Category       string
}

// NewExampleRecordFromRow builds an ExampleRecord from a sample row,
// defaulting a missing classification to Compliant and normalizing the
// category field into the canonical set
func NewExampleRecordFromRow(row SampleRow) ExampleRecord {
	classification := strings.TrimSpace(row.Classification)
	if classification == "" {
		classification = ClassificationCompliant
	}
	return ExampleRecord{
		ID:             uuid.NewString(),
		From:           row.From,
		To:             row.To,
		Subject:        row.Subject,
		Body:           row.Body,
		Classification: classification,
		Categories:     NormalizeCategories(classification, SplitCategoryField(row.Category)...),
		CreatedAt:      time.Now(),
	}
}

// ScoredExample is an example record paired with its similarity to a query
type ScoredExample struct {
	Record     ExampleRecord
	Similarity float64
}

// RetrievalContext is the full retrieval output for one query email
type RetrievalContext struct {
	Examples             []ScoredExample
	Formatted            string
	CategoryDistribution map[string]int
}

// ClassificationRequest carries everything the LLM needs to judge one email
type ClassificationRequest struct {
	Email      *Email
	Categories []string
	Examples   string
}

// Verdict is the model's structured compliance judgment for one email
type Verdict struct {
	NonCompliant bool
	Categories   CategorySet
	Reason       string
	Evidence     []string
	Confidence   int
	ModelUsed    string
	ProcessingID string
	AnalyzedAt   time.Time
}

// ClassificationResult is the final per-email output combining the email,
// the verdict and the derived risk score
type ClassificationResult struct {
	Index          int
	Email          Email
	Classification string
	Categories     CategorySet
	RiskScore      float64
	Reason         string
	Evidence       string
	Confidence     int
	ModelUsed      string
	AnalyzedAt     time.Time
}

// Rubric is the process-wide compliance configuration: category names,
// per-category risk weights and the trusted domains that mark an email
// pair as internal. Loaded once at startup, read-only thereafter.
type Rubric struct {
	Categories     []string
	Weights        map[string]float64
	TrustedDomains []string
}
