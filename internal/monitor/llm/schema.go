package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	genai "google.golang.org/genai"

	"process-monitor/internal/monitor/models"
)

// ============================================================
// Response schemas
// ============================================================

func str(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func object(props map[string]*genai.Schema, required ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeObject, Properties: props, Required: required}
}

func array(desc string, items *genai.Schema) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Description: desc, Items: items}
}

var analysisSchema = object(map[string]*genai.Schema{
	"overallStatus": str("Health of the newest reading: In-Compliance, Warning or Critical."),
	"faults": array("Parameters of the newest reading that deviate from the baseline.", object(map[string]*genai.Schema{
		"parameter":     str("Parameter name, e.g. Supply Airflow."),
		"zone":          str("Zone name."),
		"baselineValue": str("Baseline value with units."),
		"currentValue":  str("Measured value with units."),
		"deviation":     str("Short description of the deviation."),
	}, "parameter", "zone", "baselineValue", "currentValue", "deviation")),
	"trendAnalysis": array("Trends across all readings.", object(map[string]*genai.Schema{
		"parameter":        str("Parameter name."),
		"zone":             str("Zone name."),
		"trendDescription": str("How the value moves over the readings."),
		"prediction":       str("What happens if the trend continues."),
	}, "parameter", "zone", "trendDescription", "prediction")),
	"rootCauseAnalysis": array("Likely root causes for the faults and trends.", object(map[string]*genai.Schema{
		"cause":          str("Candidate root cause."),
		"reasoning":      str("How the cause explains the observations."),
		"recommendation": str("Action to verify or fix it."),
	}, "cause", "reasoning", "recommendation")),
}, "overallStatus", "faults", "trendAnalysis", "rootCauseAnalysis")

var changeRequestSchema = object(map[string]*genai.Schema{
	"title":             str("Short title of the change."),
	"justification":     str("Why the change is needed, citing faults and trends."),
	"recommendedAction": str("Ordered steps to carry out."),
	"expectedResults":   str("Measurable outcome after the change."),
	"riskLevel":         str("Low, Medium or High."),
	"riskDetails":       str("Risks and how to mitigate them."),
	"estimatedCost":     str("Rough labour and material cost."),
}, "title", "justification", "recommendedAction", "expectedResults", "riskLevel", "riskDetails", "estimatedCost")

// ============================================================
// Response parsing
// ============================================================

// ParseAnalysis разбирает и проверяет ответ анализа.
func ParseAnalysis(text string) (*models.AIAnalysis, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidJSON
	}
	var a models.AIAnalysis
	if err := json.Unmarshal([]byte(text), &a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if !a.OverallStatus.Valid() {
		return nil, fmt.Errorf("%w: overallStatus %q", ErrInvalidJSON, a.OverallStatus)
	}
	if a.Faults == nil {
		a.Faults = []models.Fault{}
	}
	if a.TrendAnalysis == nil {
		a.TrendAnalysis = []models.Trend{}
	}
	if a.RootCauseAnalysis == nil {
		a.RootCauseAnalysis = []models.RootCause{}
	}
	return &a, nil
}

// ParseChangeRequest разбирает предложение заявки; неизвестный риск становится Low.
func ParseChangeRequest(text string) (*models.ChangeRequestDraft, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidJSON
	}
	var d models.ChangeRequestDraft
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if !d.RiskLevel.Valid() {
		d.RiskLevel = models.RiskLow
	}
	return &d, nil
}
