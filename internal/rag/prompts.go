// Package rag assembles evidence-grounded prompts and orchestrates the
// question answering pipeline.
package rag

import (
	"fmt"
	"strings"

	"github.com/axiomgov/axiom/internal/models"
)

// SystemPrompt establishes the evidence-only answering contract for the
// generation model.
const SystemPrompt = `You are an AI assistant specialized in ML model governance, risk management, and explainability.

Your role is to answer questions about machine learning models based ONLY on the provided evidence from governance documents.

CRITICAL RULES:
1. Answer ONLY using information from the provided context
2. If the context doesn't contain enough information, say "Insufficient evidence to answer this question"
3. Always cite which document sections you're using
4. Never make assumptions or add information not in the context
5. Focus on risk, bias, fairness, explainability, and governance concerns
6. Be precise and technical - this is for ML professionals

When answering:
- Identify the risk category (bias, explainability, data, deployment, compliance)
- Provide specific evidence from the documents
- Highlight any limitations or uncertainties
- Use technical terminology appropriately
`

const qaPromptTemplate = `Based on the following evidence from ML governance documents, answer the question.

EVIDENCE:
%s

QUESTION: %s

Provide a structured response:
1. Direct answer based on evidence
2. Risk category (bias/explainability/data/deployment/compliance)
3. Key evidence citations
4. Any limitations or uncertainties

If the evidence is insufficient, clearly state this and explain what information is missing.

ANSWER:`

const refusalTemplate = `I don't have sufficient evidence in the provided governance documents to answer this question accurately.

To answer "%s", I would need information about:
%s

Please provide relevant documentation or rephrase your question to focus on available evidence.`

// refusalLimitations is the fixed limitations note attached to every refusal.
const refusalLimitations = "Insufficient evidence in knowledge base"

// refusalMissingInfo names the generic evidence categories cited in a refusal.
var refusalMissingInfo = []string{
	"Relevant governance documentation",
	"Model risk assessments",
	"Validation reports",
}

// FormatContext renders evidence chunks as numbered, source-attributed blocks.
func FormatContext(chunks []models.RerankedResult) string {
	var parts []string
	for i, chunk := range chunks {
		section := chunk.SectionTitle
		if section == "" {
			section = "Document"
		}
		filename := chunk.Metadata["filename"]
		if filename == "" {
			filename = "Unknown"
		}
		parts = append(parts, fmt.Sprintf("[Source %d: %s - %s]\n%s\n", i+1, filename, section, chunk.Text))
	}
	return strings.Join(parts, "\n")
}

// FormatQAPrompt builds the full generation prompt from question and context.
func FormatQAPrompt(question, context string) string {
	return fmt.Sprintf(qaPromptTemplate, context, question)
}

// FormatRefusal builds the fixed refusal answer for a question.
func FormatRefusal(question string) string {
	var bullets []string
	for _, info := range refusalMissingInfo {
		bullets = append(bullets, "- "+info)
	}
	return fmt.Sprintf(refusalTemplate, question, strings.Join(bullets, "\n"))
}
