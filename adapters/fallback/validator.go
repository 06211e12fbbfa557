// Package fallback holds the deterministic semantic validator used when the
// completion service fails or returns an unparsable verdict. It scans the
// question for vocabulary tokens that do not appear among the schema's
// columns, the strongest cheap signal that the question asks about a field
// the dataset simply does not have.
package fallback

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"querymind/domain/verdict"
	"querymind/ports"
)

// DefaultVocabulary lists attribute words users commonly ask about that
// small demo schemas rarely carry.
var DefaultVocabulary = []string{"color", "rating", "brand", "model", "size", "version"}

// minTokenLength filters out short incidental matches.
const minTokenLength = 4

var wordPattern = regexp.MustCompile(`[a-zA-Z_]+`)

// Validator implements ports.SemanticValidator with a pure vocabulary scan.
type Validator struct {
	vocabulary map[string]struct{}
}

// NewValidator creates a fallback validator. An empty vocabulary gets the
// default set.
func NewValidator(vocabulary []string) *Validator {
	if len(vocabulary) == 0 {
		vocabulary = DefaultVocabulary
	}
	set := make(map[string]struct{}, len(vocabulary))
	for _, word := range vocabulary {
		set[strings.ToLower(word)] = struct{}{}
	}
	return &Validator{vocabulary: set}
}

// Validate scans the question, case-insensitively, for vocabulary tokens
// absent from the schema columns. Matches become unknown fields; no match
// means the fallback has nothing to flag and the first pass stands.
func (v *Validator) Validate(_ context.Context, req ports.ValidationRequest) (verdict.Verdict, error) {
	var unknown []string
	seen := make(map[string]struct{})

	for _, word := range wordPattern.FindAllString(strings.ToLower(req.Question), -1) {
		if len(word) < minTokenLength {
			continue
		}
		if _, inVocab := v.vocabulary[word]; !inVocab {
			continue
		}
		if req.Schema != nil && req.Schema.HasColumn(word) {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		unknown = append(unknown, word)
	}

	if len(unknown) > 0 {
		return verdict.Verdict{
			IntentMatch:   false,
			UnknownFields: unknown,
			Feedback: fmt.Sprintf("The question references field(s) not present in the schema: %s. Rephrase using available columns.",
				strings.Join(unknown, ", ")),
			Source: verdict.SourceFallback,
		}, nil
	}

	return verdict.Verdict{
		IntentMatch: true,
		Feedback:    "No semantic issues detected by vocabulary scan.",
		Source:      verdict.SourceFallback,
	}, nil
}
