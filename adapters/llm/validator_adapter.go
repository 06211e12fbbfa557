package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"querymind/domain/core"
	"querymind/domain/sqltext"
	"querymind/domain/verdict"
	"querymind/ports"
)

// ValidatorAdapter implements ports.SemanticValidator against a completion
// service, degrading to a deterministic fallback validator on any transport
// or parse failure. The fallback is an explicit branch recorded on the
// verdict's Source field, not a silent catch-all.
type ValidatorAdapter struct {
	config     Config
	llmClient  ports.CompletionClient
	fallback   ports.SemanticValidator
	statistics ports.StatisticsReader
}

// DistinctValueLimit bounds how many distinct values grounding retrieves
// per column. Enough to enumerate small categorical dimensions in full.
const DistinctValueLimit = 20

// NewValidatorAdapter creates a semantic validator backed by an LLM client.
func NewValidatorAdapter(config Config, fallback ports.SemanticValidator, statistics ports.StatisticsReader) (*ValidatorAdapter, error) {
	client, err := newLLMClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return &ValidatorAdapter{config: config, llmClient: client, fallback: fallback, statistics: statistics}, nil
}

// NewValidatorAdapterWithClient wires an explicit client (tests, shared client).
func NewValidatorAdapterWithClient(config Config, client ports.CompletionClient, fallback ports.SemanticValidator, statistics ports.StatisticsReader) *ValidatorAdapter {
	return &ValidatorAdapter{config: config, llmClient: client, fallback: fallback, statistics: statistics}
}

// Validate produces a verdict for the executed first pass.
//
// When the only anomaly is negative values, the completion call is skipped
// entirely: the deterministic SUM(ABS()) correction needs no semantic input.
// Otherwise one completion call is made; failure or an unparsable response
// degrades to the fallback vocabulary scan. An empty result additionally
// grounds the verdict in real distinct-values / date-range lookups.
func (v *ValidatorAdapter) Validate(ctx context.Context, req ports.ValidationRequest) (verdict.Verdict, error) {
	if req.Report.NegativeOnly() {
		return verdict.Verdict{
			IntentMatch: true,
			Feedback:    "Negative totals detected; deterministic correction applies without semantic review.",
			Source:      verdict.SourceShortCircuit,
		}, nil
	}

	out, err := v.llmVerdict(ctx, req)
	if err != nil {
		log.Printf("[ValidatorAdapter] completion verdict unavailable (%v), using fallback scan", err)
		out, err = v.fallback.Validate(ctx, req)
		if err != nil {
			return verdict.Verdict{}, err
		}
	}

	if req.Report.Empty {
		out.Grounding = v.gatherGrounding(ctx, req)
	}
	return out, nil
}

// llmVerdict makes the single completion call and parses the structured
// verdict. Every failure mode maps to an error so the caller can branch to
// the fallback explicitly.
func (v *ValidatorAdapter) llmVerdict(ctx context.Context, req ports.ValidationRequest) (verdict.Verdict, error) {
	prompt := buildValidationPrompt(req.Question, req.SQL, req.Schema, req.Sample, req.Report)

	raw, err := v.llmClient.ChatCompletion(ctx, v.config.Model, prompt, v.config.MaxTokens)
	if err != nil {
		return verdict.Verdict{}, err
	}
	parsed, err := parseVerdict(raw)
	if err != nil {
		return verdict.Verdict{}, err
	}
	return parsed, nil
}

// wireVerdict is the verdict wire contract: intent_match (bool),
// unknown_fields (ordered names), refined_sql (text or absent), feedback.
type wireVerdict struct {
	IntentMatch   bool     `json:"intent_match"`
	UnknownFields []string `json:"unknown_fields"`
	RefinedSQL    *string  `json:"refined_sql"`
	Feedback      string   `json:"feedback"`
}

// parseVerdict parses a completion response into a verdict. Markdown fences
// and chatter around the JSON object are tolerated; anything else is a
// core.ErrValidationParse.
func parseVerdict(raw string) (verdict.Verdict, error) {
	content := extractJSONObject(sqltext.CleanGenerated(raw))
	if content == "" {
		return verdict.Verdict{}, fmt.Errorf("%w: no JSON object in response", core.ErrValidationParse)
	}

	var wire wireVerdict
	if err := json.Unmarshal([]byte(content), &wire); err != nil {
		return verdict.Verdict{}, fmt.Errorf("%w: %v", core.ErrValidationParse, err)
	}

	refined := ""
	if wire.RefinedSQL != nil {
		refined = strings.TrimSpace(*wire.RefinedSQL)
		// The service signals "no usable query" as the literal NULL.
		if strings.EqualFold(refined, "NULL") {
			refined = ""
		}
	}
	if refined != "" && !sqltext.Validate(refined) {
		return verdict.Verdict{}, fmt.Errorf("%w: refined_sql is not a valid query", core.ErrValidationParse)
	}

	return verdict.Verdict{
		IntentMatch:   wire.IntentMatch,
		UnknownFields: wire.UnknownFields,
		RefinedSQL:    refined,
		Feedback:      wire.Feedback,
		Source:        verdict.SourceLLM,
	}, nil
}

// extractJSONObject trims chatter before/after the outermost JSON object.
func extractJSONObject(content string) string {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}

// gatherGrounding queries the statistics collaborator for the filter
// predicate columns of an empty result: distinct values for categorical
// columns, min/max for temporal ones. Lookup failures are logged and
// skipped; text downstream cites only what was actually retrieved.
func (v *ValidatorAdapter) gatherGrounding(ctx context.Context, req ports.ValidationRequest) verdict.Grounding {
	grounding := verdict.Grounding{}
	if v.statistics == nil {
		return grounding
	}

	for _, col := range sqltext.PredicateColumns(req.SQL) {
		if !req.Schema.HasColumn(col) {
			continue
		}
		colType := req.Schema.ColumnType(col)
		switch {
		case colType.IsTemporal():
			min, max, err := v.statistics.DateBounds(ctx, req.Dataset, col)
			if err != nil {
				log.Printf("[ValidatorAdapter] date bounds lookup failed for %s: %v", col, err)
				continue
			}
			if grounding.DateRanges == nil {
				grounding.DateRanges = make(map[string]verdict.DateRange)
			}
			grounding.DateRanges[col] = verdict.DateRange{Min: min, Max: max}
		case colType.IsNumeric():
			// Numeric filters rarely explain an empty result; skip.
		default:
			values, err := v.statistics.DistinctValues(ctx, req.Dataset, col, DistinctValueLimit)
			if err != nil {
				log.Printf("[ValidatorAdapter] distinct values lookup failed for %s: %v", col, err)
				continue
			}
			if grounding.DistinctValues == nil {
				grounding.DistinctValues = make(map[string][]string)
			}
			grounding.DistinctValues[col] = values
		}
	}
	return grounding
}
