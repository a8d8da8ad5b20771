package llm

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"process-monitor/internal/monitor/models"
)

//go:embed knowledge.md
var knowledgeBase string

// KnowledgeBase возвращает встроенный справочник инженерных принципов.
func KnowledgeBase() string {
	return knowledgeBase
}

func pretty(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%q", err.Error())
	}
	return string(b)
}

func dataBlock(sb *strings.Builder, baseline models.ProcessData, historical []models.ProcessData) {
	sb.WriteString("Baseline (design target for the line):\n```json\n")
	sb.WriteString(pretty(baseline))
	sb.WriteString("\n```\n\nReadings in collection order, the last one is the newest:\n```json\n")
	sb.WriteString(pretty(historical))
	sb.WriteString("\n```\n")
}

// ============================================================
// Analysis
// ============================================================

func analysisFocus(problem string) string {
	if strings.TrimSpace(problem) == "" {
		return "No specific complaint was given. Review the overall health of the line and rank the most severe issues first."
	}
	return fmt.Sprintf("The engineer is chasing this problem: %q. Give priority to faults and trends that can explain it "+
		"and use it to rank the candidate root causes.", problem)
}

// AnalysisPrompt собирает запрос на анализ отклонений, трендов и первопричин.
func AnalysisPrompt(req AnalysisRequest) string {
	var sb strings.Builder
	sb.WriteString("You diagnose automotive paint-line ovens, flash zones, booths and coolers.\n\n")
	sb.WriteString("Focus:\n")
	sb.WriteString(analysisFocus(req.ProblemStatement))
	sb.WriteString("\n\nSteps:\n")
	sb.WriteString("1. Compare the newest reading with the baseline and list every parameter that differs by more than 5 %.\n")
	sb.WriteString("2. Walk through all readings and report parameters that rise, fall or oscillate over time.\n")
	sb.WriteString("3. Use the reference below to explain the faults and trends with likely root causes.\n")
	sb.WriteString("4. Rate the line: In-Compliance when every deviation is within 5 %, Warning when the worst is between 5 and 10 %, Critical above 10 %.\n")
	sb.WriteString("5. Answer with one JSON object that follows the response schema.\n\n")
	sb.WriteString("Reference:\n---\n")
	sb.WriteString(knowledgeBase)
	sb.WriteString("---\n\n")
	dataBlock(&sb, req.Baseline, req.Historical)
	return sb.String()
}

// ============================================================
// Chat
// ============================================================

// ChatInstruction - системная инструкция диалога с данными линии.
func ChatInstruction(req ChatRequest) string {
	var sb strings.Builder
	sb.WriteString("You are a process engineering assistant for a paint dehydration line. ")
	sb.WriteString("Answer from the data below and the reference only. ")
	sb.WriteString("For trend questions compare the readings with each other. ")
	sb.WriteString("Show calculations step by step.\n")
	if p := strings.TrimSpace(req.ProblemStatement); p != "" {
		fmt.Fprintf(&sb, "The investigation is about: %q. Keep it in mind in every answer.\n", p)
	}
	sb.WriteString("\nReference:\n---\n")
	sb.WriteString(knowledgeBase)
	sb.WriteString("---\n\n")
	dataBlock(&sb, req.Baseline, req.Historical)
	return sb.String()
}

// ============================================================
// Change request suggestion
// ============================================================

// SuggestionPrompt собирает запрос на заявку по результатам анализа.
func SuggestionPrompt(req SuggestionRequest) string {
	var sb strings.Builder
	sb.WriteString("You write change requests for an automotive paint line maintenance team.\n\n")
	if p := strings.TrimSpace(req.ProblemStatement); p != "" {
		fmt.Fprintf(&sb, "The change must address this reported problem: %q.\n\n", p)
	} else {
		sb.WriteString("No problem was reported. Target the most severe fault or trend in the analysis.\n\n")
	}
	sb.WriteString("Read the faults, trends and root causes, pick the single issue that most needs action and ")
	sb.WriteString("describe a practical, ordered fix a technician can follow. Risk level is Low, Medium or High. ")
	sb.WriteString("Answer with one JSON object that follows the response schema.\n\n")
	sb.WriteString("Analysis and data:\n```json\n")
	sb.WriteString(pretty(map[string]any{
		"analysis":     req.Analysis,
		"baselineData": req.Baseline,
		"historical":   req.Historical,
	}))
	sb.WriteString("\n```\n")
	return sb.String()
}
