package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"querymind/domain/anomaly"
	"querymind/domain/result"
)

// generationPrompt asks for first-pass SQL. Partial text matches go through
// LIKE so a question naming "MacBook" still hits "MacBook Air M3".
const generationPromptTemplate = `You are a SQL assistant. Given the schema and user question, write a valid SQL query.
Use table name '%s'. Respond with SQL only. If the question contains a name or text, use LIKE '%%text%%' for partial matching instead of exact '='. Always ensure column names match those in the schema exactly.

Schema:
%s

Question:
%s

Respond with the SQL query only, no explanations.`

func buildGenerationPrompt(question string, schema *result.Schema) string {
	return fmt.Sprintf(generationPromptTemplate, schema.Table, schema.Describe(), question)
}

// validationPromptTemplate asks the completion service whether the executed
// SQL answers the question, and demands a structured verdict it can parse.
const validationPromptTemplate = `You are QueryMind, a SQL reasoning and reflection assistant.

Analyze whether the SQL query correctly answers the user's question based on the provided schema and the actual output it produced.

Question: %s
SQL Query: %s
Schema:
%s

First rows of the output:
%s

Detected output issues:
%s

Respond with valid JSON only, exactly this shape:
{
  "intent_match": <true if the SQL answers the question>,
  "unknown_fields": [<names the question references that do not exist in the schema, e.g. "color" or "rating"; empty if none>],
  "refined_sql": <an improved SQL query if one is needed, otherwise null>,
  "feedback": "<one or two sentences on what is wrong or confirming the query is fine>"
}`

func buildValidationPrompt(question, sql string, schema *result.Schema, sample []map[string]any, report anomaly.Report) string {
	sampleJSON := "[]"
	if b, err := json.Marshal(sample); err == nil {
		sampleJSON = string(b)
	}
	issues := report.Issues()
	issuesText := "none"
	if len(issues) > 0 {
		issuesText = "- " + strings.Join(issues, "\n- ")
	}
	return fmt.Sprintf(validationPromptTemplate, question, sql, schema.Describe(), sampleJSON, issuesText)
}
