package domain

import "time"

// Mecanismos y tipos de mercado soportados.
const (
	MechanismCPMM = "cpmm-1"
	OutcomeBinary = "BINARY"
)

// Market es el snapshot de un mercado binario respaldado por un AMM.
type Market struct {
	ID          string
	Slug        string
	Question    string
	OutcomeType string // "BINARY" | "MULTIPLE_CHOICE" | ...
	Mechanism   string // "cpmm-1" | "dpm-2" | ...
	Pool        Pool
	P           float64 // peso del pool YES en el invariante CPMM
	Prob        float64 // probabilidad reportada por la API (0 = no reportada)
	Resolved    bool
	CloseTime   time.Time
	FetchedAt   time.Time
}

// Pool contiene las reservas de shares del AMM para cada outcome.
type Pool struct {
	YES float64
	NO  float64
}

// IsBinary devuelve true si el mercado es binario y sigue abierto.
func (m Market) IsBinary() bool {
	return m.OutcomeType == OutcomeBinary && !m.Resolved
}

// HasPool devuelve true si el mercado expone un pool CPMM utilizable.
func (m Market) HasPool() bool {
	return m.Mechanism == MechanismCPMM && m.Pool.YES > 0 && m.Pool.NO > 0 && m.P > 0 && m.P < 1
}

// Probability devuelve la probabilidad implícita de YES.
// Si hay pool CPMM la calcula desde el pool; si no, usa la reportada por la API.
// El bool es false cuando el mercado no tiene una probabilidad utilizable.
func (m Market) Probability() (float64, bool) {
	if !m.IsBinary() {
		return 0, false
	}
	if m.HasPool() {
		return PoolProbability(m.Pool, m.P), true
	}
	if m.Prob > 0 && m.Prob < 1 {
		return m.Prob, true
	}
	return 0, false
}

// PoolProbability calcula la probabilidad de YES de un pool CPMM con peso p.
//
//	prob = p·NO / ((1-p)·YES + p·NO)
func PoolProbability(pool Pool, p float64) float64 {
	return p * pool.NO / ((1-p)*pool.YES + p*pool.NO)
}

// TruncateQuestion devuelve la pregunta truncada a maxLen runas.
// Si la pregunta está vacía usa el slug como fallback.
func TruncateQuestion(question, slug string, maxLen int) string {
	q := question
	if q == "" {
		q = slug
	}
	if r := []rune(q); len(r) > maxLen {
		q = string(r[:maxLen-3]) + "..."
	}
	return q
}
