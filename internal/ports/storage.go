package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/kellybot/internal/domain"
)

// Storage persiste el histórico de recomendaciones.
type Storage interface {
	// SaveAdvice persiste las recomendaciones de un ciclo.
	SaveAdvice(ctx context.Context, advice []domain.Advice) error

	// GetHistory devuelve las recomendaciones evaluadas en el rango dado.
	GetHistory(ctx context.Context, from, to time.Time) ([]domain.Advice, error)

	// Close cierra la conexión a la base de datos limpiamente.
	Close() error
}
