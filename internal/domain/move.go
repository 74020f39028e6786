package domain

// AnalysisRequest is one line sent to `katago analysis`. Field order is part of
// the cache key, so it must not change.
type AnalysisRequest struct {
	ID               string            `json:"id"`
	InitialStones    [][2]string       `json:"initialStones"` // [["B","D4"], ["W","Q16"], ...]
	Moves            [][2]string       `json:"moves"`
	Rules            string            `json:"rules"`
	Komi             float64           `json:"komi"`
	OverrideSettings map[string]string `json:"overrideSettings"`
	BoardXSize       int               `json:"boardXSize"`
	BoardYSize       int               `json:"boardYSize"`
	MaxVisits        int               `json:"maxVisits,omitempty"`
}

// ActionRequest covers the non-analysis actions (query_version, query_models).
type ActionRequest struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

// Ответ KataGo с анализом позиции
type AnalysisResponse struct {
	ID             string     `json:"id"`
	Error          string     `json:"error,omitempty"`
	Field          string     `json:"field,omitempty"`
	TurnNumber     int        `json:"turnNumber"`
	IsDuringSearch bool       `json:"isDuringSearch"`
	RootInfo       *RootInfo  `json:"rootInfo"`
	MoveInfos      []MoveInfo `json:"moveInfos,omitempty"`
}

// Информация о корневой позиции (общая информация)
type RootInfo struct {
	CurrentPlayer string  `json:"currentPlayer"` // "W" или "B"
	Winrate       float64 `json:"winrate"`
	ScoreLead     float64 `json:"scoreLead"`
	ScoreSelfplay float64 `json:"scoreSelfplay"`
	ScoreStdev    float64 `json:"scoreStdev"`
	Utility       float64 `json:"utility"`
	Visits        int     `json:"visits"`
}

type MoveInfo struct {
	Move      string   `json:"move"`
	Winrate   float64  `json:"winrate"`
	Visits    int      `json:"visits"`
	ScoreLead float64  `json:"scoreLead"`
	PV        []string `json:"pv"`
}

type VersionResponse struct {
	ID      string `json:"id"`
	Version string `json:"version"`
	GitHash string `json:"git_hash"`
}

type ModelsResponse struct {
	ID     string      `json:"id"`
	Models []ModelInfo `json:"models"`
}

type ModelInfo struct {
	Name         string `json:"name"`
	InternalName string `json:"internalName,omitempty"`
	MaxBatchSize int    `json:"maxBatchSize,omitempty"`
}
