package app

import (
	"context"
	"fmt"
	"time"

	"querymind/domain/anomaly"
	"querymind/domain/core"
	"querymind/domain/result"
	"querymind/domain/verdict"
	"querymind/internal"
	"querymind/internal/cache"
	"querymind/ports"
)

// sampleRowCount is how many leading rows the validator sees.
const sampleRowCount = 3

// ReflectionService sequences the reflection pipeline as a finite state
// machine across two execution passes:
//
//	GENERATED -> EXECUTED_V1 -> DETECTED -> VALIDATED -> DECIDED ->
//	(EXECUTED_V2, conditional) -> EXPLAINED -> DONE
//
// ERROR is reachable from any state on an unrecoverable executor fault.
// Each call runs one independent, strictly ordered pipeline instance; the
// injected cache manager is the only shared state between concurrent calls.
type ReflectionService struct {
	generator ports.SQLGenerator
	executor  ports.QueryExecutor
	validator ports.SemanticValidator
	detector  *anomaly.Detector
	corrector *Corrector
	explainer *Explainer
	cache     *cache.Manager
	logger    *internal.Logger
}

// NewReflectionService wires the reflection pipeline.
func NewReflectionService(
	generator ports.SQLGenerator,
	executor ports.QueryExecutor,
	validator ports.SemanticValidator,
	detector *anomaly.Detector,
	cacheManager *cache.Manager,
	logger *internal.Logger,
) *ReflectionService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ReflectionService{
		generator: generator,
		executor:  executor,
		validator: validator,
		detector:  detector,
		corrector: NewCorrector(),
		explainer: NewExplainer(),
		cache:     cacheManager,
		logger:    logger,
	}
}

// Request identifies one question over one dataset.
type Request struct {
	Question string
	Schema   *result.Schema
	Dataset  core.DatasetID
}

// Run executes the full reflection pipeline for one question. Only a
// first-pass execution error is fatal; every other failure narrows the
// path but still produces an answer.
func (s *ReflectionService) Run(ctx context.Context, req Request) (*verdict.ReflectionResult, error) {
	startTime := time.Now()

	res := &verdict.ReflectionResult{
		ID:        core.ReflectionID(core.NewID()),
		Question:  req.Question,
		StartedAt: core.NewTimestamp(startTime),
	}
	advance := func(state verdict.State) {
		res.States = append(res.States, state)
	}
	schemaFP := req.Schema.Fingerprint()

	// GENERATED: question -> SQL v1, through the generation cache.
	sqlV1, err := s.generateSQL(ctx, req, schemaFP)
	if err != nil {
		advance(verdict.StateError)
		return nil, fmt.Errorf("sql generation failed: %w", err)
	}
	res.SQLV1 = sqlV1
	advance(verdict.StateGenerated)

	// EXECUTED_V1: the only fatal failure point. With no output there is
	// nothing to reflect on.
	resultV1, err := s.executeSQL(ctx, req.Dataset, sqlV1, schemaFP)
	if err != nil {
		advance(verdict.StateError)
		s.logger.Error("first-pass execution failed: %v", err)
		return nil, err
	}
	res.ResultV1 = resultV1
	advance(verdict.StateExecutedV1)

	// DETECTED: pure scan over the v1 result, never re-derived from v2.
	res.Report = s.detector.Detect(resultV1)
	advance(verdict.StateDetected)

	// VALIDATED: semantic check through the reflection cache. The
	// validator absorbs collaborator failures internally.
	vd, err := s.validate(ctx, req, sqlV1, resultV1, res.Report)
	if err != nil {
		advance(verdict.StateError)
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	res.Verdict = vd
	advance(verdict.StateValidated)

	// DECIDED: the decision must be final before any second execution; no
	// speculative re-execution.
	res.Decision = s.corrector.Decide(res.Report, vd, sqlV1)
	advance(verdict.StateDecided)

	// EXECUTED_V2: only for a rewrite. A second-pass failure rejects the
	// correction and retains the first answer; it never aborts.
	if res.Decision.Action == verdict.ActionRewrite {
		resultV2, err := s.executeSQL(ctx, req.Dataset, res.Decision.NewSQL, schemaFP)
		if err != nil {
			s.logger.Warn("corrected query failed, retaining first-pass answer: %v", err)
			res.Decision = verdict.Decision{
				Action: verdict.ActionNone,
				Reason: "rewrite rejected",
			}
		} else {
			res.SQLV2 = res.Decision.NewSQL
			res.ResultV2 = resultV2
			res.V2Executed = true
			advance(verdict.StateExecutedV2)
		}
	}

	// EXPLAINED: both result sets (or the null-response path) are settled.
	res.Explanation = s.explain(req.Schema, res)
	advance(verdict.StateExplained)

	advance(verdict.StateDone)
	res.RuntimeMs = time.Since(startTime).Milliseconds()
	return res, nil
}

// CacheStats exposes the per-layer cache counters.
func (s *ReflectionService) CacheStats() map[cache.Layer]cache.LayerStats {
	return s.cache.Stats()
}

// InvalidateCache drops one layer, or every layer for "all". Call with
// "all" whenever the underlying dataset changes.
func (s *ReflectionService) InvalidateCache(layerName string) error {
	layer, all, err := cache.ParseLayer(layerName)
	if err != nil {
		return err
	}
	if all {
		s.cache.InvalidateAll()
		return nil
	}
	s.cache.Invalidate(layer)
	return nil
}

func (s *ReflectionService) generateSQL(ctx context.Context, req Request, schemaFP core.SchemaFingerprint) (string, error) {
	key := cache.GenerationKey(req.Question, schemaFP)
	value, err := s.cache.GetOrCompute(cache.LayerGeneration, key, func() (any, error) {
		return s.generator.GenerateSQL(ctx, req.Question, req.Schema)
	})
	if err != nil {
		return "", err
	}
	sql, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("generation cache held unexpected type %T", value)
	}
	return sql, nil
}

func (s *ReflectionService) executeSQL(ctx context.Context, dataset core.DatasetID, sql string, schemaFP core.SchemaFingerprint) (*result.QueryResult, error) {
	key := cache.ExecutionKey(sql, schemaFP)
	value, err := s.cache.GetOrCompute(cache.LayerExecution, key, func() (any, error) {
		return s.executor.Execute(ctx, dataset, sql)
	})
	if err != nil {
		return nil, err
	}
	res, ok := value.(*result.QueryResult)
	if !ok {
		return nil, fmt.Errorf("execution cache held unexpected type %T", value)
	}
	return res, nil
}

func (s *ReflectionService) validate(ctx context.Context, req Request, sqlV1 string, resultV1 *result.QueryResult, report anomaly.Report) (verdict.Verdict, error) {
	key := cache.ReflectionKey(req.Question, sqlV1, resultV1.Fingerprint())
	value, err := s.cache.GetOrCompute(cache.LayerReflection, key, func() (any, error) {
		return s.validator.Validate(ctx, ports.ValidationRequest{
			Question: req.Question,
			SQL:      sqlV1,
			Schema:   req.Schema,
			Sample:   resultV1.SampleRows(sampleRowCount),
			Report:   report,
			Dataset:  req.Dataset,
		})
	})
	if err != nil {
		return verdict.Verdict{}, err
	}
	vd, ok := value.(verdict.Verdict)
	if !ok {
		return verdict.Verdict{}, fmt.Errorf("reflection cache held unexpected type %T", value)
	}
	return vd, nil
}

func (s *ReflectionService) explain(schema *result.Schema, res *verdict.ReflectionResult) string {
	key := cache.ExplanationKey(string(res.Decision.Action), res.Decision.Reason, res.SQLV1, res.Decision.NewSQL)
	value, err := s.cache.GetOrCompute(cache.LayerExplanation, key, func() (any, error) {
		return s.explainer.Explain(ExplainInput{
			Decision: res.Decision,
			Verdict:  res.Verdict,
			Report: ReportView{
				Empty:                res.Report.Empty,
				NegativeValueColumns: res.Report.NegativeValueColumns,
				HasDuplicates:        res.Report.HasDuplicates,
				NullOnlyColumns:      res.Report.NullOnlyColumns,
			},
			Schema: schema,
		}), nil
	})
	if err != nil {
		// The explainer itself cannot fail; keep a safe default anyway.
		return res.Decision.Reason
	}
	explanation, _ := value.(string)
	return explanation
}
