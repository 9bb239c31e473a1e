package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config es la configuración completa de kellybot.
type Config struct {
	Kelly     KellyConfig      `yaml:"kelly"`
	Bankroll  BankrollConfig   `yaml:"bankroll"`
	API       APIConfig        `yaml:"api"`
	Cache     CacheConfig      `yaml:"cache"`
	Advisor   AdvisorConfig    `yaml:"advisor"`
	Watchlist []WatchlistEntry `yaml:"watchlist"`
	Storage   StorageConfig    `yaml:"storage"`
	Log       LogConfig        `yaml:"log"`
}

// KellyConfig controla el criterio de Kelly y el root-finding.
type KellyConfig struct {
	Deference  float64 `yaml:"deference"` // peso de nuestra estimación frente al mercado [0,1]
	Iterations int     `yaml:"iterations"`
	Tolerance  float64 `yaml:"tolerance"`
	AMMStep    float64 `yaml:"amm_step"`
}

// BankrollConfig describe el patrimonio disponible.
type BankrollConfig struct {
	Balance    float64 `yaml:"balance"`     // saldo líquido
	IlliquidEV float64 `yaml:"illiquid_ev"` // valor esperado de las posiciones abiertas
}

// APIConfig contiene el base URL de la API de Manifold.
type APIConfig struct {
	ManifoldBase string `yaml:"manifold_base"`
}

// CacheConfig controla la cache de snapshots de mercado.
type CacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

// AdvisorConfig controla el loop de evaluación.
type AdvisorConfig struct {
	IntervalSeconds int     `yaml:"interval_seconds"`
	Workers         int     `yaml:"workers"`
	MinAmount       float64 `yaml:"min_amount"`
	MinHoursToClose float64 `yaml:"min_hours_to_close"`
}

// WatchlistEntry es un mercado a evaluar con nuestra estimación de YES.
type WatchlistEntry struct {
	Slug     string  `yaml:"slug"`
	Estimate float64 `yaml:"estimate"`
}

// StorageConfig controla dónde se persisten los datos.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite, o ":memory:"
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

// Validate comprueba los rangos que el optimizador asume.
func (c *Config) Validate() error {
	if c.Kelly.Deference < 0 || c.Kelly.Deference > 1 {
		return fmt.Errorf("kelly.deference %.4f outside [0,1]", c.Kelly.Deference)
	}
	if c.Bankroll.Balance < 0 {
		return fmt.Errorf("bankroll.balance must be >= 0, got %.2f", c.Bankroll.Balance)
	}
	if c.Bankroll.IlliquidEV < 0 {
		return fmt.Errorf("bankroll.illiquid_ev must be >= 0, got %.2f", c.Bankroll.IlliquidEV)
	}
	for i, w := range c.Watchlist {
		if w.Slug == "" {
			return fmt.Errorf("watchlist[%d]: empty slug", i)
		}
		if w.Estimate < 0 || w.Estimate > 1 {
			return fmt.Errorf("watchlist[%d] %s: estimate %.4f outside [0,1]", i, w.Slug, w.Estimate)
		}
	}
	return nil
}

// Interval devuelve el intervalo del advisor como time.Duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Advisor.IntervalSeconds) * time.Second
}

// CacheTTL devuelve el TTL de la cache de mercados.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("MANIFOLD_API_BASE"); v != "" {
		cfg.API.ManifoldBase = v
	}
	if v := os.Getenv("KELLY_BALANCE"); v != "" {
		balance, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("KELLY_BALANCE %q: %w", v, err)
		}
		cfg.Bankroll.Balance = balance
	}
	return nil
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
// deference y balance no tienen default: 0 es un valor válido.
func setDefaults(cfg *Config) {
	if cfg.Kelly.Iterations <= 0 {
		cfg.Kelly.Iterations = 10
	}
	if cfg.Kelly.Tolerance <= 0 {
		cfg.Kelly.Tolerance = 1e-6
	}
	if cfg.Kelly.AMMStep <= 0 {
		cfg.Kelly.AMMStep = 0.1
	}
	if cfg.API.ManifoldBase == "" {
		cfg.API.ManifoldBase = "https://api.manifold.markets"
	}
	if cfg.Cache.TTLSeconds <= 0 {
		cfg.Cache.TTLSeconds = 30
	}
	if cfg.Advisor.IntervalSeconds <= 0 {
		cfg.Advisor.IntervalSeconds = 300
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "kellybot.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
