package manifold

// apiMarket es el payload de GET /v0/slug/{slug} (campos usados).
type apiMarket struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Question    string   `json:"question"`
	OutcomeType string   `json:"outcomeType"`
	Mechanism   string   `json:"mechanism"`
	Probability *float64 `json:"probability"`
	P           float64  `json:"p"`
	Pool        apiPool  `json:"pool"`
	IsResolved  bool     `json:"isResolved"`
	CloseTime   int64    `json:"closeTime"` // epoch en ms
}

type apiPool struct {
	YES float64 `json:"YES"`
	NO  float64 `json:"NO"`
}
