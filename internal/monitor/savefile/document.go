package savefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"process-monitor/internal/monitor/models"
)

// FormatErrorText - сообщение для файла без baseline или historical.
const FormatErrorText = "Invalid configuration file format. Missing 'baseline' or 'historical' data array."

var (
	ErrInvalidFormat = errors.New(FormatErrorText)
	ErrMalformed     = errors.New("malformed save file")
)

// Document - содержимое файла сохранения.
type Document struct {
	Baseline         models.ProcessData     `json:"baseline"`
	Historical       []models.ProcessData   `json:"historical"`
	ChangeRequests   []models.ChangeRequest `json:"changeRequests"`
	ProblemStatement string                 `json:"problemStatement"`
}

var documentSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"baseline", "historical"},
	"properties": map[string]interface{}{
		"baseline": map[string]interface{}{
			"type": "object",
		},
		"historical": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "object"},
		},
		"changeRequests": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "object"},
		},
		"problemStatement": map[string]interface{}{
			"type": "string",
		},
	},
}

// ============================================================
// Encode / Decode
// ============================================================

// Encode сериализует документ с отступом в два пробела.
func Encode(doc Document) ([]byte, error) {
	if doc.Historical == nil {
		doc.Historical = []models.ProcessData{}
	}
	if doc.ChangeRequests == nil {
		doc.ChangeRequests = []models.ChangeRequest{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode save file: %w", err)
	}
	return data, nil
}

// Decode разбирает и проверяет файл сохранения, затем сверяет замеры с базой.
// now используется для пустого замера, если historical пуст.
func Decode(data []byte, now time.Time) (Document, Reconciliation, error) {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, Reconciliation{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := validate(raw); err != nil {
		return Document{}, Reconciliation{}, err
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, Reconciliation{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for i, z := range doc.Baseline.Zones {
		if z.SubSystems == nil {
			doc.Baseline.Zones[i].SubSystems = []models.SubSystem{}
		}
	}
	if doc.Baseline.Zones == nil {
		doc.Baseline.Zones = []models.Zone{}
	}
	if doc.ChangeRequests == nil {
		doc.ChangeRequests = []models.ChangeRequest{}
	}
	normalizeChangeRequests(doc.ChangeRequests)
	if len(doc.Historical) == 0 {
		doc.Historical = []models.ProcessData{models.BlankProcessData(now)}
	}

	var rec Reconciliation
	doc.Historical, rec = Reconcile(doc.Baseline, doc.Historical)
	return doc, rec, nil
}

func validate(raw interface{}) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(documentSchema),
		gojsonschema.NewGoLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	errs := make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		errs[i] = desc.String()
	}
	return &FormatError{Details: errs}
}

// FormatError - нарушение структуры файла; Details - ошибки схемы.
type FormatError struct {
	Details []string
}

func (e *FormatError) Error() string {
	return FormatErrorText + " (" + strings.Join(e.Details, "; ") + ")"
}

func (e *FormatError) Unwrap() error {
	return ErrInvalidFormat
}

func normalizeChangeRequests(list []models.ChangeRequest) {
	for i := range list {
		if !list[i].RiskLevel.Valid() {
			list[i].RiskLevel = models.RiskLow
		}
		if !list[i].Status.Valid() {
			list[i].Status = models.ChangeDraft
		}
	}
}
