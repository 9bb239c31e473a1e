package ports

import (
	"context"

	"github.com/alejandrodnm/kellybot/internal/domain"
)

// Notifier presenta las recomendaciones al usuario.
type Notifier interface {
	// Notify muestra las recomendaciones de un ciclo de evaluación.
	Notify(ctx context.Context, advice []domain.Advice) error
}
