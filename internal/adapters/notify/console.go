package notify

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/kellybot/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
	now   func() time.Time
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table, now: time.Now}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table, now: time.Now}
}

// Notify imprime las recomendaciones del ciclo en el modo configurado.
func (c *Console) Notify(_ context.Context, advice []domain.Advice) error {
	if len(advice) == 0 {
		fmt.Fprintf(c.out, "[%s] no recommendations\n", c.now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(advice)
	} else {
		c.printCompact(advice)
	}
	return nil
}

// printCompact imprime una línea por ciclo con las apuestas más grandes.
func (c *Console) printCompact(advice []domain.Advice) {
	withBet, total := summarize(advice)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d mkts → bets:%d total:%s",
		c.now().Format("15:04:05"), len(advice), withBet, money(total))

	shown := 0
	for _, a := range advice {
		if shown >= 4 {
			break
		}
		rec := a.Recommendation
		if !(rec.Amount > 0) {
			continue
		}
		fmt.Fprintf(&sb, " | %s %s %s @%.2f→%.2f",
			compactName(domain.TruncateQuestion(a.Question, a.Slug, 60), 25),
			rec.Outcome, money(rec.Amount), a.MarketProb, rec.ProbabilityAfter)
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla completa con cuotas y cotas del óptimo.
func (c *Console) printFull(advice []domain.Advice) {
	withBet, total := summarize(advice)
	fmt.Fprintf(c.out, "\n[%s] %d markets, %d bets, total %s\n",
		c.now().Format("15:04:05"), len(advice), withBet, money(total))

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Market", "Side", "Bet", "Naive", "Shares", "Odds", "Implied", "Prob", "Est", "Range")

	for i, a := range advice {
		rec := a.Recommendation

		table.Append(
			fmt.Sprintf("%d", i+1),
			domain.TruncateQuestion(a.Question, a.Slug, 38),
			rec.Outcome.String(),
			money(rec.Amount),
			money(a.NaiveAmount),
			fmt.Sprintf("%.2f", finiteOr(rec.Shares, 0)),
			oddsLabel(rec.BetRecommendation, domain.DecimalOdds),
			oddsLabel(rec.BetRecommendation, domain.ImpliedProbability),
			fmt.Sprintf("%.3f→%.3f", a.MarketProb, rec.ProbabilityAfter),
			fmt.Sprintf("%.3f", a.EstimatedProb),
			rangeLabel(rec),
		)
	}

	table.Render()

	fmt.Fprintln(c.out, "  Bet = óptimo con liquidez | Naive = Kelly sin impacto de precio")
	fmt.Fprintln(c.out, "  Odds = pago medio decimal | Range = cotas con patrimonio ilíquido")
}

// --- helpers ---

func summarize(advice []domain.Advice) (withBet int, total float64) {
	for _, a := range advice {
		if amount := a.Recommendation.Amount; amount > 0 && !math.IsInf(amount, 0) {
			withBet++
			total += amount
		}
	}
	return
}

// oddsLabel expresa la cuota media de la apuesta en el formato pedido.
func oddsLabel(rec domain.BetRecommendation, format domain.OddsFormat) string {
	decimal := rec.AverageDecimalOdds()
	if decimal <= 0 || math.IsNaN(decimal) {
		return "-"
	}
	v, err := domain.ConvertOdds(domain.DecimalOdds, format, decimal)
	if err != nil {
		return "-"
	}
	if format == domain.ImpliedProbability {
		return fmt.Sprintf("%.1f%%", v*100)
	}
	return fmt.Sprintf("%.3f", v)
}

func rangeLabel(rec domain.PortfolioRecommendation) string {
	if rec.Initial == 0 && rec.High == 0 {
		return "-"
	}
	return fmt.Sprintf("%s–%s", money(rec.Initial), money(rec.High))
}

func money(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("M$%.2f", v)
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

// compactName corta s a maxLen runas, preferiblemente en un espacio.
func compactName(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	cut := r[:maxLen]
	for i := len(cut) - 1; i > maxLen/2; i-- {
		if cut[i] == ' ' {
			cut = cut[:i]
			break
		}
	}
	return string(cut) + "…"
}
