package storage

// sqlite.go — histórico de recomendaciones.
//
// Estrategia:
//   - `cycles`: resumen ligero por ciclo de evaluación. Siempre 1 fila.
//   - `advice`: una fila por recomendación que cambió respecto a la última
//     guardada para ese slug (> 5% en amount, o cambio de outcome).
//   - Cache en memoria del último estado por slug para evitar writes
//     redundantes; se precarga al arrancar.
//   - Prune automático al arrancar: cycles > 30d, advice > 90d.
//   - Tiempos en epoch ms para no depender del formato de fecha del driver.

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/alejandrodnm/kellybot/internal/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS cycles (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    evaluated_at INTEGER NOT NULL,
    total        INTEGER NOT NULL DEFAULT 0,
    with_bet     INTEGER NOT NULL DEFAULT 0,
    total_amount REAL    NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS advice (
    id              TEXT PRIMARY KEY,
    slug            TEXT    NOT NULL,
    question        TEXT,
    outcome         TEXT    NOT NULL,
    amount          REAL    NOT NULL DEFAULT 0,
    amount_initial  REAL    NOT NULL DEFAULT 0,
    amount_high     REAL    NOT NULL DEFAULT 0,
    naive_amount    REAL    NOT NULL DEFAULT 0,
    shares          REAL    NOT NULL DEFAULT 0,
    prob_before     REAL    NOT NULL DEFAULT 0,
    prob_after      REAL    NOT NULL DEFAULT 0,
    estimated_prob  REAL    NOT NULL DEFAULT 0,
    deference       REAL    NOT NULL DEFAULT 0,
    balance         REAL    NOT NULL DEFAULT 0,
    illiquid_ev     REAL    NOT NULL DEFAULT 0,
    evaluated_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cycles_at  ON cycles(evaluated_at DESC);
CREATE INDEX IF NOT EXISTS idx_advice_at  ON advice(evaluated_at DESC);
CREATE INDEX IF NOT EXISTS idx_advice_slug ON advice(slug, evaluated_at DESC);
`

const (
	retentionCycles = 30 * 24 * time.Hour
	retentionAdvice = 90 * 24 * time.Hour
	amountChangePct = 0.05 // 5% de cambio en amount → reescribir
)

// cachedState es el snapshot de la última recomendación guardada de un slug.
type cachedState struct {
	outcome string
	amount  float64
}

// SQLiteStorage implementa ports.Storage usando SQLite (pure Go, sin CGo).
type SQLiteStorage struct {
	db    *sql.DB
	cache map[string]cachedState // slug → última recomendación guardada
	mu    sync.Mutex
}

// NewSQLiteStorage abre (o crea) la base de datos en la ruta dada.
// Aplica el schema, limpia datos antiguos y precarga la cache.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteStorage: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteStorage: apply schema: %w", err)
	}

	s := &SQLiteStorage{
		db:    db,
		cache: make(map[string]cachedState),
	}
	s.pruneOld(context.Background())
	s.warmCache(context.Background())
	return s, nil
}

// SaveAdvice persiste el resumen del ciclo y las recomendaciones que
// cambiaron respecto a la última guardada de su slug, en una sola
// transacción. La caché de cambios solo se actualiza tras el commit.
func (s *SQLiteStorage) SaveAdvice(ctx context.Context, advice []domain.Advice) error {
	if len(advice) == 0 {
		return nil
	}

	now := time.Now().UTC()
	withBet, totalAmount := cycleSummary(advice)
	toWrite, pending := s.filterChanged(advice)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage.SaveAdvice: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO cycles (evaluated_at, total, with_bet, total_amount) VALUES (?, ?, ?, ?)`,
		now.UnixMilli(), len(advice), withBet, totalAmount,
	); err != nil {
		return fmt.Errorf("storage.SaveAdvice: insert cycle: %w", err)
	}

	if len(toWrite) > 0 {
		if err := insertAdvice(ctx, tx, toWrite, now); err != nil {
			return fmt.Errorf("storage.SaveAdvice: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage.SaveAdvice: commit: %w", err)
	}

	s.remember(pending)
	return nil
}

func insertAdvice(ctx context.Context, tx *sql.Tx, advice []domain.Advice, now time.Time) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO advice
			(id, slug, question, outcome, amount, amount_initial, amount_high,
			 naive_amount, shares, prob_before, prob_after, estimated_prob,
			 deference, balance, illiquid_ev, evaluated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, a := range advice {
		id := a.ID
		if id == "" {
			id = uuid.NewString()
		}
		evaluatedAt := a.EvaluatedAt
		if evaluatedAt.IsZero() {
			evaluatedAt = now
		}
		rec := a.Recommendation

		if _, err := stmt.ExecContext(ctx,
			id,
			a.Slug,
			a.Question,
			rec.Outcome.String(),
			finite(rec.Amount),
			finite(rec.Initial),
			finite(rec.High),
			a.NaiveAmount,
			finite(rec.Shares),
			a.MarketProb,
			finite(rec.ProbabilityAfter),
			a.EstimatedProb,
			a.Deference,
			a.Balance,
			a.IlliquidEV,
			evaluatedAt.UTC().UnixMilli(),
		); err != nil {
			return fmt.Errorf("insert %s: %w", a.Slug, err)
		}
	}
	return nil
}

// GetHistory devuelve las recomendaciones evaluadas en el rango dado,
// de la más reciente a la más antigua.
func (s *SQLiteStorage) GetHistory(ctx context.Context, from, to time.Time) ([]domain.Advice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slug, question, outcome, amount, amount_initial, amount_high,
		       naive_amount, shares, prob_before, prob_after, estimated_prob,
		       deference, balance, illiquid_ev, evaluated_at
		FROM advice
		WHERE evaluated_at BETWEEN ? AND ?
		ORDER BY evaluated_at DESC, amount DESC
	`, from.UTC().UnixMilli(), to.UTC().UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("storage.GetHistory: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Advice
	for rows.Next() {
		var a domain.Advice
		var question sql.NullString
		var outcome string
		var evaluatedAt int64
		rec := &a.Recommendation

		if err := rows.Scan(
			&a.ID,
			&a.Slug,
			&question,
			&outcome,
			&rec.Amount,
			&rec.Initial,
			&rec.High,
			&a.NaiveAmount,
			&rec.Shares,
			&a.MarketProb,
			&rec.ProbabilityAfter,
			&a.EstimatedProb,
			&a.Deference,
			&a.Balance,
			&a.IlliquidEV,
			&evaluatedAt,
		); err != nil {
			return nil, fmt.Errorf("storage.GetHistory: scan row: %w", err)
		}

		a.Question = question.String
		rec.Outcome, err = domain.ParseOutcome(outcome)
		if err != nil {
			return nil, fmt.Errorf("storage.GetHistory: %w", err)
		}
		a.EvaluatedAt = time.UnixMilli(evaluatedAt).UTC()
		out = append(out, a)
	}

	return out, rows.Err()
}

// Close cierra la conexión a la base de datos.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// --- helpers internos ---

// filterChanged devuelve las recomendaciones que cambiaron respecto al estado
// en caché y el estado nuevo de cada slug escrito. No modifica la caché.
func (s *SQLiteStorage) filterChanged(advice []domain.Advice) ([]domain.Advice, map[string]cachedState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var toWrite []domain.Advice
	pending := make(map[string]cachedState)
	for _, a := range advice {
		outcome := a.Recommendation.Outcome.String()
		amount := finite(a.Recommendation.Amount)

		prev, ok := pending[a.Slug]
		if !ok {
			prev, ok = s.cache[a.Slug]
		}
		if ok && prev.outcome == outcome && relChange(prev.amount, amount) < amountChangePct {
			continue
		}

		toWrite = append(toWrite, a)
		pending[a.Slug] = cachedState{outcome: outcome, amount: amount}
	}
	return toWrite, pending
}

// remember aplica a la caché los estados ya confirmados en la DB.
func (s *SQLiteStorage) remember(states map[string]cachedState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for slug, st := range states {
		s.cache[slug] = st
	}
}

// pruneOld elimina datos antiguos para mantener la DB ligera.
func (s *SQLiteStorage) pruneOld(ctx context.Context) {
	now := time.Now().UTC()
	s.db.ExecContext(ctx, `DELETE FROM cycles WHERE evaluated_at < ?`, now.Add(-retentionCycles).UnixMilli())
	s.db.ExecContext(ctx, `DELETE FROM advice WHERE evaluated_at < ?`, now.Add(-retentionAdvice).UnixMilli())
}

// warmCache precarga la última recomendación de cada slug, evitando
// escrituras redundantes en el primer ciclo tras un reinicio.
func (s *SQLiteStorage) warmCache(ctx context.Context) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.slug, a.outcome, a.amount
		FROM advice a
		JOIN (SELECT slug, MAX(evaluated_at) AS at FROM advice GROUP BY slug) last
		  ON last.slug = a.slug AND last.at = a.evaluated_at
	`)
	if err != nil {
		return
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	for rows.Next() {
		var slug, outcome string
		var amount float64
		if rows.Scan(&slug, &outcome, &amount) == nil {
			s.cache[slug] = cachedState{outcome: outcome, amount: amount}
		}
	}
}

// cycleSummary cuenta las recomendaciones con apuesta y suma sus importes.
func cycleSummary(advice []domain.Advice) (withBet int, total float64) {
	for _, a := range advice {
		amount := finite(a.Recommendation.Amount)
		if amount > 0 {
			withBet++
			total += amount
		}
	}
	return
}

// relChange devuelve el cambio relativo entre dos valores (0.0 – ∞).
func relChange(old, new float64) float64 {
	if old == 0 {
		if new == 0 {
			return 0
		}
		return 1.0 // forzar escritura si antes era 0
	}
	return math.Abs(new-old) / math.Abs(old)
}

// finite sustituye NaN/Inf por 0: SQLite no los admite en columnas REAL NOT NULL.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
