package models

// ============================================================
// AI analysis
// ============================================================

type OverallStatus string

const (
	StatusInCompliance OverallStatus = "In-Compliance"
	StatusWarning      OverallStatus = "Warning"
	StatusCritical     OverallStatus = "Critical"
)

func (s OverallStatus) Valid() bool {
	switch s {
	case StatusInCompliance, StatusWarning, StatusCritical:
		return true
	}
	return false
}

type Fault struct {
	Parameter     string `json:"parameter"`
	Zone          string `json:"zone"`
	BaselineValue string `json:"baselineValue"`
	CurrentValue  string `json:"currentValue"`
	Deviation     string `json:"deviation"`
}

type Trend struct {
	Parameter        string `json:"parameter"`
	Zone             string `json:"zone"`
	TrendDescription string `json:"trendDescription"`
	Prediction       string `json:"prediction"`
}

type RootCause struct {
	Cause          string `json:"cause"`
	Reasoning      string `json:"reasoning"`
	Recommendation string `json:"recommendation"`
}

// AIAnalysis - результат внешнего анализа; ядро его не интерпретирует.
type AIAnalysis struct {
	OverallStatus     OverallStatus `json:"overallStatus"`
	Faults            []Fault       `json:"faults"`
	TrendAnalysis     []Trend       `json:"trendAnalysis"`
	RootCauseAnalysis []RootCause   `json:"rootCauseAnalysis"`
}

// Clone возвращает копию с собственными срезами.
func (a AIAnalysis) Clone() AIAnalysis {
	return AIAnalysis{
		OverallStatus:     a.OverallStatus,
		Faults:            append([]Fault{}, a.Faults...),
		TrendAnalysis:     append([]Trend{}, a.TrendAnalysis...),
		RootCauseAnalysis: append([]RootCause{}, a.RootCauseAnalysis...),
	}
}

// ============================================================
// Chat
// ============================================================

type ChatRole string

const (
	RoleUser  ChatRole = "user"
	RoleModel ChatRole = "model"
)

type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// ============================================================
// Change requests
// ============================================================

type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

type ChangeStatus string

const (
	ChangeDraft           ChangeStatus = "Draft"
	ChangePendingApproval ChangeStatus = "Pending Approval"
	ChangeApproved        ChangeStatus = "Approved"
)

func (s ChangeStatus) Valid() bool {
	switch s {
	case ChangeDraft, ChangePendingApproval, ChangeApproved:
		return true
	}
	return false
}

const NewChangeRequestTitle = "New Change Request"

type ChangeRequest struct {
	ID                string       `json:"id"`
	Title             string       `json:"title"`
	Justification     string       `json:"justification"`
	RecommendedAction string       `json:"recommendedAction"`
	ExpectedResults   string       `json:"expectedResults"`
	RiskLevel         RiskLevel    `json:"riskLevel"`
	RiskDetails       string       `json:"riskDetails"`
	EstimatedCost     string       `json:"estimatedCost"`
	Status            ChangeStatus `json:"status"`
}

// ChangeRequestDraft - предложение без id и статуса.
type ChangeRequestDraft struct {
	Title             string    `json:"title"`
	Justification     string    `json:"justification"`
	RecommendedAction string    `json:"recommendedAction"`
	ExpectedResults   string    `json:"expectedResults"`
	RiskLevel         RiskLevel `json:"riskLevel"`
	RiskDetails       string    `json:"riskDetails"`
	EstimatedCost     string    `json:"estimatedCost"`
}

// ToRequest превращает предложение в черновик заявки.
func (d ChangeRequestDraft) ToRequest(id string) ChangeRequest {
	risk := d.RiskLevel
	if !risk.Valid() {
		risk = RiskLow
	}
	return ChangeRequest{
		ID:                id,
		Title:             d.Title,
		Justification:     d.Justification,
		RecommendedAction: d.RecommendedAction,
		ExpectedResults:   d.ExpectedResults,
		RiskLevel:         risk,
		RiskDetails:       d.RiskDetails,
		EstimatedCost:     d.EstimatedCost,
		Status:            ChangeDraft,
	}
}

// ChangeRequestFromRCA заполняет заявку из пункта анализа первопричин.
func ChangeRequestFromRCA(id string, rca RootCause) ChangeRequest {
	return ChangeRequest{
		ID:                id,
		Title:             rca.Cause,
		Justification:     rca.Reasoning,
		RecommendedAction: rca.Recommendation,
		RiskLevel:         RiskLow,
		Status:            ChangeDraft,
	}
}

// NewChangeRequest создаёт пустую заявку.
func NewChangeRequest(id string) ChangeRequest {
	return ChangeRequest{
		ID:        id,
		Title:     NewChangeRequestTitle,
		RiskLevel: RiskLow,
		Status:    ChangeDraft,
	}
}
