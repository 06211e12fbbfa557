package verdict

import (
	"querymind/domain/anomaly"
	"querymind/domain/core"
	"querymind/domain/result"
)

// Source identifies which branch produced a verdict. Fallback selection is
// an explicit, observable outcome, not a silent catch-all.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
	// SourceShortCircuit marks the negative-values-only case where no
	// semantic check is needed at all.
	SourceShortCircuit Source = "short_circuit"
)

// Verdict is the structured outcome of semantic validation, either parsed
// from the completion service or synthesized by the deterministic fallback.
type Verdict struct {
	IntentMatch   bool     `json:"intent_match"`
	UnknownFields []string `json:"unknown_fields,omitempty"`
	RefinedSQL    string   `json:"refined_sql,omitempty"`
	Feedback      string   `json:"feedback"`

	Source    Source    `json:"source"`
	Grounding Grounding `json:"grounding,omitempty"`
}

// DateRange holds retrieved min/max bounds of a temporal column.
type DateRange struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// Grounding carries facts actually retrieved from the dataset for an empty
// first-pass result. Downstream text may cite only these values.
type Grounding struct {
	// DistinctValues maps a filter-predicate column to its real distinct
	// values in the dataset.
	DistinctValues map[string][]string `json:"distinct_values,omitempty"`
	// DateRanges maps a temporal filter-predicate column to its real
	// min/max bounds.
	DateRanges map[string]DateRange `json:"date_ranges,omitempty"`
}

// IsEmpty reports whether no grounding facts were retrieved.
func (g Grounding) IsEmpty() bool {
	return len(g.DistinctValues) == 0 && len(g.DateRanges) == 0
}

// Action is the correction the decision policy selected.
type Action string

const (
	ActionNone         Action = "NONE"
	ActionRewrite      Action = "REWRITE"
	ActionNullResponse Action = "NULL_RESPONSE"
)

// Decision maps an anomaly report and a verdict to exactly one action.
// Never partially applied: a REWRITE always carries valid SQL.
type Decision struct {
	Action Action `json:"action"`
	NewSQL string `json:"new_sql,omitempty"`
	Reason string `json:"reason"`
}

// State names one stage of the reflection pipeline.
type State string

const (
	StateGenerated  State = "GENERATED"
	StateExecutedV1 State = "EXECUTED_V1"
	StateDetected   State = "DETECTED"
	StateValidated  State = "VALIDATED"
	StateDecided    State = "DECIDED"
	StateExecutedV2 State = "EXECUTED_V2"
	StateExplained  State = "EXPLAINED"
	StateDone       State = "DONE"
	StateError      State = "ERROR"
)

// ReflectionResult aggregates everything one question produced across both
// execution passes. Immutable once the pipeline reaches DONE or ERROR.
type ReflectionResult struct {
	ID       core.ReflectionID `json:"id"`
	Question string            `json:"question"`

	SQLV1    string              `json:"sql_v1"`
	ResultV1 *result.QueryResult `json:"result_v1,omitempty"`

	Report   anomaly.Report `json:"report"`
	Verdict  Verdict        `json:"verdict"`
	Decision Decision       `json:"decision"`

	// V2Executed records explicitly whether a second pass ran; its absence
	// is a recorded fact, never a silent omission.
	V2Executed bool                `json:"v2_executed"`
	SQLV2      string              `json:"sql_v2,omitempty"`
	ResultV2   *result.QueryResult `json:"result_v2,omitempty"`

	Explanation string `json:"explanation"`

	States    []State        `json:"states"`
	StartedAt core.Timestamp `json:"started_at"`
	RuntimeMs int64          `json:"runtime_ms"`
}

// FinalResult returns the result set the caller should present: the second
// pass when one ran, otherwise the first. A null response carries no result
// at all; the explanation is the answer.
func (r *ReflectionResult) FinalResult() *result.QueryResult {
	if r.Decision.Action == ActionNullResponse {
		return nil
	}
	if r.V2Executed && r.ResultV2 != nil {
		return r.ResultV2
	}
	return r.ResultV1
}

// TerminalState returns the last recorded pipeline state.
func (r *ReflectionResult) TerminalState() State {
	if len(r.States) == 0 {
		return ""
	}
	return r.States[len(r.States)-1]
}
