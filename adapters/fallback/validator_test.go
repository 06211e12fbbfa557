package fallback

import (
	"context"
	"reflect"
	"testing"

	"querymind/domain/result"
	"querymind/domain/verdict"
	"querymind/ports"
)

func transactionsSchema() *result.Schema {
	return &result.Schema{
		Table: "transactions",
		Columns: []result.Column{
			{Name: "product_name", Type: result.TypeText},
			{Name: "category", Type: result.TypeText},
			{Name: "region", Type: result.TypeText},
			{Name: "revenue", Type: result.TypeReal},
			{Name: "ts", Type: result.TypeDate},
		},
	}
}

func TestVocabularyScan(t *testing.T) {
	validator := NewValidator(nil)
	schema := transactionsSchema()

	tests := []struct {
		name        string
		question    string
		wantUnknown []string
		wantMatch   bool
	}{
		{
			name:        "color not in schema",
			question:    "What is the most popular color of iPhone?",
			wantUnknown: []string{"color"},
			wantMatch:   false,
		},
		{
			name:        "case insensitive match",
			question:    "Show products by RATING",
			wantUnknown: []string{"rating"},
			wantMatch:   false,
		},
		{
			name:        "multiple unknown fields",
			question:    "Which brand and model sells best?",
			wantUnknown: []string{"brand", "model"},
			wantMatch:   false,
		},
		{
			name:      "question within schema",
			question:  "Which product generated the highest total revenue?",
			wantMatch: true,
		},
		{
			name:      "vocabulary word repeated counts once",
			question:  "Compare color against color",
			wantMatch: false,
			wantUnknown: []string{
				"color",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vd, err := validator.Validate(context.Background(), ports.ValidationRequest{
				Question: tt.question,
				Schema:   schema,
			})
			if err != nil {
				t.Fatalf("Validate returned error: %v", err)
			}
			if vd.IntentMatch != tt.wantMatch {
				t.Errorf("IntentMatch = %v, want %v", vd.IntentMatch, tt.wantMatch)
			}
			if !reflect.DeepEqual(vd.UnknownFields, tt.wantUnknown) {
				t.Errorf("UnknownFields = %v, want %v", vd.UnknownFields, tt.wantUnknown)
			}
			if vd.Source != verdict.SourceFallback {
				t.Errorf("Source = %v, want fallback", vd.Source)
			}
		})
	}
}

func TestVocabularyTokenPresentInSchema(t *testing.T) {
	validator := NewValidator(nil)
	schema := &result.Schema{
		Table: "products",
		Columns: []result.Column{
			{Name: "color", Type: result.TypeText},
			{Name: "price", Type: result.TypeReal},
		},
	}

	vd, err := validator.Validate(context.Background(), ports.ValidationRequest{
		Question: "What color sells best?",
		Schema:   schema,
	})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if !vd.IntentMatch || len(vd.UnknownFields) != 0 {
		t.Fatalf("color exists in schema, expected clean verdict, got %+v", vd)
	}
}

func TestCustomVocabulary(t *testing.T) {
	validator := NewValidator([]string{"warranty"})

	vd, err := validator.Validate(context.Background(), ports.ValidationRequest{
		Question: "Which products are under warranty by color?",
		Schema:   transactionsSchema(),
	})
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if !reflect.DeepEqual(vd.UnknownFields, []string{"warranty"}) {
		t.Fatalf("custom vocabulary should only match its own tokens, got %v", vd.UnknownFields)
	}
}
