package advisor

import (
	"time"

	"github.com/alejandrodnm/kellybot/internal/domain"
)

// FilterConfig contiene los parámetros configurables de filtrado.
type FilterConfig struct {
	// MinAmount descarta recomendaciones con importe menor a esto.
	// 0 mantiene también las recomendaciones sin apuesta.
	MinAmount float64
	// MinHoursToClose descarta mercados que cierran antes de X horas.
	MinHoursToClose float64
}

// DefaultFilterConfig devuelve una configuración que no descarta nada.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{}
}

// Filter aplica los filtros configurados antes y después de evaluar.
type Filter struct {
	cfg FilterConfig
}

// NewFilter crea un Filter con la configuración dada.
func NewFilter(cfg FilterConfig) *Filter {
	return &Filter{cfg: cfg}
}

// Admits decide si merece la pena evaluar el mercado.
// Si no, devuelve el motivo.
func (f *Filter) Admits(m domain.Market, now time.Time) (string, bool) {
	if m.Resolved {
		return "resolved", false
	}
	if m.OutcomeType != domain.OutcomeBinary {
		return "not binary: " + m.OutcomeType, false
	}
	if f.cfg.MinHoursToClose > 0 && !m.CloseTime.IsZero() {
		if m.CloseTime.Sub(now).Hours() < f.cfg.MinHoursToClose {
			return "closes too soon", false
		}
	}
	return "", true
}

// Apply devuelve las recomendaciones que superan el importe mínimo.
func (f *Filter) Apply(advice []domain.Advice) []domain.Advice {
	if f.cfg.MinAmount <= 0 {
		return advice
	}
	result := make([]domain.Advice, 0, len(advice))
	for _, a := range advice {
		if a.Recommendation.Amount >= f.cfg.MinAmount {
			result = append(result, a)
		}
	}
	return result
}
