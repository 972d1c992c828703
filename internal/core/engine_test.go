package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	records    []ExampleRecord
	addErr     error
	generation uint64
}

func (s *fakeStore) Add(_ context.Context, records []ExampleRecord) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.records = append(s.records, records...)
	s.generation++
	return nil
}

func (s *fakeStore) Search(_ context.Context, _ string, _ int) ([]ScoredExample, error) {
	return nil, nil
}

func (s *fakeStore) Len() int           { return len(s.records) }
func (s *fakeStore) Generation() uint64 { return s.generation }

type fakeRetriever struct {
	formatted string
}

func (r *fakeRetriever) ContextForEmail(_ context.Context, _, _ string) *RetrievalContext {
	return &RetrievalContext{
		Formatted:            r.formatted,
		CategoryDistribution: map[string]int{},
	}
}

// fakeLLM returns a scripted verdict keyed by email subject. The verdict
// map is read-only after construction so concurrent workers are safe.
type fakeLLM struct {
	verdicts map[string]*Verdict
	errs     map[string]error
}

func (c *fakeLLM) ClassifyEmail(_ context.Context, req *ClassificationRequest) (*Verdict, error) {
	if err, ok := c.errs[req.Email.Subject]; ok {
		return nil, err
	}
	verdict, ok := c.verdicts[req.Email.Subject]
	if !ok {
		return &Verdict{Categories: CategorySet{CategoryCompliant}}, nil
	}
	copied := *verdict
	return &copied, nil
}

func batchRubric() Rubric {
	return Rubric{
		Categories: []string{"Alpha", "Beta", "Gamma", "Delta"},
		Weights: map[string]float64{
			"Alpha": 3,
			"Beta":  9,
			"Gamma": 1,
			"Delta": 7,
		},
		TrustedDomains: []string{"x.com"},
	}
}

func newTestEngine(store ExampleStore, llm LLMClient, workers int) *ClassificationEngine {
	rubric := batchRubric()
	return NewClassificationEngine(
		store,
		&fakeRetriever{formatted: "No similar examples found."},
		llm,
		NewRiskScorer(rubric),
		rubric,
		zap.NewNop(),
		workers,
		0,
	)
}

func internalEmail(subject string) Email {
	return Email{From: "a@x.com", To: "b@x.com", Subject: subject, Body: "body of " + subject}
}

func nonCompliantVerdict(category string) *Verdict {
	return &Verdict{
		NonCompliant: true,
		Categories:   CategorySet{category},
		Reason:       "flagged",
		Evidence:     []string{"quoted line"},
		Confidence:   4,
		AnalyzedAt:   time.Now(),
	}
}

func TestClassifyOne(t *testing.T) {
	llm := &fakeLLM{verdicts: map[string]*Verdict{"leak": nonCompliantVerdict("Beta")}}
	engine := newTestEngine(&fakeStore{}, llm, 1)

	result, err := engine.ClassifyOne(context.Background(), internalEmail("leak"))
	require.NoError(t, err)

	assert.Equal(t, ClassificationNonCompliant, result.Classification)
	assert.Equal(t, CategorySet{"Beta"}, result.Categories)
	assert.Equal(t, 9.0, result.RiskScore)
	assert.Equal(t, "quoted line", result.Evidence)
	assert.Equal(t, 4, result.Confidence)
}

func TestClassifyOneCompliant(t *testing.T) {
	llm := &fakeLLM{}
	engine := newTestEngine(&fakeStore{}, llm, 1)

	result, err := engine.ClassifyOne(context.Background(), internalEmail("lunch"))
	require.NoError(t, err)
	assert.Equal(t, ClassificationCompliant, result.Classification)
}

func TestClassifyBatchFiltersAndSorts(t *testing.T) {
	llm := &fakeLLM{verdicts: map[string]*Verdict{
		"e0": nonCompliantVerdict("Alpha"), // 3
		"e1": nonCompliantVerdict("Beta"),  // 9
		"e2": nonCompliantVerdict("Beta"),  // 9, tied with e1
		"e3": {Categories: CategorySet{CategoryCompliant}},
		"e4": nonCompliantVerdict("Delta"), // 7
	}}
	engine := newTestEngine(&fakeStore{}, llm, 1)

	emails := []Email{
		internalEmail("e0"),
		internalEmail("e1"),
		internalEmail("e2"),
		internalEmail("e3"),
		internalEmail("e4"),
	}

	results := engine.ClassifyBatch(context.Background(), emails)
	require.Len(t, results, 4)

	assert.Equal(t, []float64{9, 9, 7, 3}, []float64{
		results[0].RiskScore, results[1].RiskScore, results[2].RiskScore, results[3].RiskScore,
	})

	// Tied scores keep input order
	assert.Equal(t, "e1", results[0].Email.Subject)
	assert.Equal(t, "e2", results[1].Email.Subject)
	assert.Equal(t, "e4", results[2].Email.Subject)
	assert.Equal(t, "e0", results[3].Email.Subject)
}

func TestClassifyBatchConcurrentWorkers(t *testing.T) {
	llm := &fakeLLM{verdicts: map[string]*Verdict{
		"e0": nonCompliantVerdict("Alpha"),
		"e1": nonCompliantVerdict("Beta"),
		"e2": nonCompliantVerdict("Beta"),
		"e4": nonCompliantVerdict("Delta"),
	}}
	engine := newTestEngine(&fakeStore{}, llm, 4)

	emails := []Email{
		internalEmail("e0"),
		internalEmail("e1"),
		internalEmail("e2"),
		internalEmail("e3"),
		internalEmail("e4"),
	}

	// Ordering stays deterministic regardless of worker count
	results := engine.ClassifyBatch(context.Background(), emails)
	require.Len(t, results, 4)
	assert.Equal(t, "e1", results[0].Email.Subject)
	assert.Equal(t, "e2", results[1].Email.Subject)
	assert.Equal(t, "e4", results[2].Email.Subject)
	assert.Equal(t, "e0", results[3].Email.Subject)
}

func TestClassifyBatchIsolatesFailures(t *testing.T) {
	llm := &fakeLLM{
		verdicts: map[string]*Verdict{
			"e0": nonCompliantVerdict("Alpha"),
			"e2": nonCompliantVerdict("Beta"),
		},
		errs: map[string]error{
			"e1": &MalformedVerdictError{Raw: "not json at all"},
		},
	}
	engine := newTestEngine(&fakeStore{}, llm, 1)

	emails := []Email{internalEmail("e0"), internalEmail("e1"), internalEmail("e2")}
	results := engine.ClassifyBatch(context.Background(), emails)

	require.Len(t, results, 2)
	for _, result := range results {
		assert.NotEqual(t, "e1", result.Email.Subject)
	}
}

func TestClassifyBatchAllCompliant(t *testing.T) {
	engine := newTestEngine(&fakeStore{}, &fakeLLM{}, 1)

	results := engine.ClassifyBatch(context.Background(), []Email{
		internalEmail("a"), internalEmail("b"),
	})
	assert.Empty(t, results)
}

func TestLoadExamples(t *testing.T) {
	store := &fakeStore{}
	engine := newTestEngine(store, &fakeLLM{}, 1)

	rows := []SampleRow{
		{From: "a@x.com", To: "b@x.com", Body: "hello", Classification: "", Category: ""},
		{From: "c@x.com", To: "d@y.com", Body: "shh", Classification: ClassificationNonCompliant, Category: "Beta"},
	}

	require.NoError(t, engine.LoadExamples(context.Background(), rows))
	require.Len(t, store.records, 2)

	assert.Equal(t, ClassificationCompliant, store.records[0].Classification)
	assert.Equal(t, CategorySet{CategoryCompliant}, store.records[0].Categories)
	assert.Equal(t, CategorySet{"Beta"}, store.records[1].Categories)
}

func TestAddClassifiedEmailsRoundTrip(t *testing.T) {
	store := &fakeStore{}
	engine := newTestEngine(store, &fakeLLM{}, 1)

	results := []ClassificationResult{
		{
			Email:          internalEmail("leak"),
			Classification: ClassificationNonCompliant,
			Categories:     CategorySet{"Beta", "Delta"},
			RiskScore:      16,
		},
	}

	require.NoError(t, engine.AddClassifiedEmails(context.Background(), results))
	require.Len(t, store.records, 1)

	record := store.records[0]
	assert.Equal(t, ClassificationNonCompliant, record.Classification)
	assert.Equal(t, CategorySet{"Beta", "Delta"}, record.Categories)
	assert.Equal(t, "body of leak", record.Body)
}
