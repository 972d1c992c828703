package core

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ClassificationEngine orchestrates retrieval, prompting, parsing and
// risk scoring per email, plus batch-level filtering and sorting
type ClassificationEngine struct {
	store      ExampleStore
	retriever  ExampleRetriever
	llmClient  LLMClient
	riskScorer *RiskScorer
	rubric     Rubric
	logger     *zap.Logger
	workers    int
	llmTimeout time.Duration
}

// NewClassificationEngine creates a new classification engine
func NewClassificationEngine(
	store ExampleStore,
	retriever ExampleRetriever,
	llmClient LLMClient,
	riskScorer *RiskScorer,
	rubric Rubric,
	logger *zap.Logger,
	workers int,
	llmTimeout time.Duration,
) *ClassificationEngine {
	if workers < 1 {
		workers = 1
	}
	return &ClassificationEngine{
		store:      store,
		retriever:  retriever,
		llmClient:  llmClient,
		riskScorer: riskScorer,
		rubric:     rubric,
		logger:     logger,
		workers:    workers,
		llmTimeout: llmTimeout,
	}
}

// LoadExamples converts sample rows into example records and adds the
// full set to the store in one call. Per-record ingest failures are
// surfaced as an aggregate *IngestError, never swallowed.
func (e *ClassificationEngine) LoadExamples(ctx context.Context, rows []SampleRow) error {
	records := make([]ExampleRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, NewExampleRecordFromRow(row))
	}

	if err := e.store.Add(ctx, records); err != nil {
		return fmt.Errorf("failed to load examples: %w", err)
	}

	e.logger.Info("Loaded sample emails into example store",
		zap.Int("count", len(records)),
		zap.Int("store_size", e.store.Len()))
	return nil
}

// ClassifyOne runs the full pipeline for a single email: retrieval,
// prompt build, model invocation, parsing and risk scoring. Failure at
// any stage yields a per-email error, not a partial result.
func (e *ClassificationEngine) ClassifyOne(ctx context.Context, email Email) (*ClassificationResult, error) {
	// Retrieval is best-effort; an empty context degrades prompt
	// quality but never aborts classification
	retrievalCtx := e.retriever.ContextForEmail(ctx, email.Subject, email.Body)

	req := &ClassificationRequest{
		Email:      &email,
		Categories: e.rubric.Categories,
		Examples:   retrievalCtx.Formatted,
	}

	llmCtx := ctx
	if e.llmTimeout > 0 {
		var cancel context.CancelFunc
		llmCtx, cancel = context.WithTimeout(ctx, e.llmTimeout)
		defer cancel()
	}

	verdict, err := e.llmClient.ClassifyEmail(llmCtx, req)
	if err != nil {
		return nil, fmt.Errorf("classification stage failed: %w", err)
	}

	classification := ClassificationCompliant
	if verdict.NonCompliant {
		classification = ClassificationNonCompliant
	}

	riskScore := e.riskScorer.Score(verdict.Categories, email.From, email.To)

	evidence := ""
	if len(verdict.Evidence) > 0 {
		evidence = verdict.Evidence[0]
	}

	return &ClassificationResult{
		Email:          email,
		Classification: classification,
		Categories:     verdict.Categories,
		RiskScore:      riskScore,
		Reason:         verdict.Reason,
		Evidence:       evidence,
		Confidence:     verdict.Confidence,
		ModelUsed:      verdict.ModelUsed,
		AnalyzedAt:     verdict.AnalyzedAt,
	}, nil
}

// ClassifyBatch processes every email independently, then filters to
// non-compliant results and stable-sorts them by descending risk score
// (ties keep input order). Per-email failures are logged and excluded;
// the batch completes regardless. A batch with zero non-compliant
// results is a valid, successful outcome.
func (e *ClassificationEngine) ClassifyBatch(ctx context.Context, emails []Email) []ClassificationResult {
	e.logger.Info("Classifying email batch",
		zap.Int("count", len(emails)),
		zap.Int("workers", e.workers))

	slots := make([]*ClassificationResult, len(emails))

	var wg sync.WaitGroup
	sem := make(chan struct{}, e.workers)
	for i := range emails {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := e.ClassifyOne(ctx, emails[idx])
			if err != nil {
				e.logger.Error("Failed to classify email",
					zap.Int("index", idx),
					zap.String("from", emails[idx].From),
					zap.String("subject", emails[idx].Subject),
					zap.Error(err))
				return
			}
			result.Index = idx
			slots[idx] = result
		}(i)
	}
	wg.Wait()

	nonCompliant := make([]ClassificationResult, 0, len(emails))
	for _, result := range slots {
		if result == nil {
			continue
		}
		if result.Classification == ClassificationNonCompliant {
			nonCompliant = append(nonCompliant, *result)
		}
	}

	sort.SliceStable(nonCompliant, func(i, j int) bool {
		return nonCompliant[i].RiskScore > nonCompliant[j].RiskScore
	})

	e.logger.Info("Batch classification complete",
		zap.Int("processed", len(emails)),
		zap.Int("non_compliant", len(nonCompliant)))
	return nonCompliant
}

// AddClassifiedEmails converts engine outputs back into example records
// and appends them to the store, growing it from its own classification
// history. The caller decides when to invoke this; the engine never
// does it implicitly.
func (e *ClassificationEngine) AddClassifiedEmails(ctx context.Context, results []ClassificationResult) error {
	records := make([]ExampleRecord, 0, len(results))
	for _, result := range results {
		records = append(records, NewExampleRecordFromRow(SampleRow{
			Date:           result.Email.Date,
			From:           result.Email.From,
			To:             result.Email.To,
			Subject:        result.Email.Subject,
			Body:           result.Email.Body,
			Classification: result.Classification,
			Category:       result.Categories.String(),
		}))
	}

	if err := e.store.Add(ctx, records); err != nil {
		return fmt.Errorf("failed to add classified emails: %w", err)
	}

	e.logger.Info("Added classified emails to example store",
		zap.Int("count", len(records)))
	return nil
}
