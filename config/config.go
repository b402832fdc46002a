package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Run holds the request parameters of one report run. They are copied into the
// run state once and never change afterwards.
type Run struct {
	RunID        string             `yaml:"run_id"`
	Period       string             `yaml:"period" validate:"required"`
	Regions      []string           `yaml:"regions" validate:"min=1,dive,required"`
	FocusIssues  []string           `yaml:"focus_issues"`
	Segments     []string           `yaml:"segments"`
	Depth        string             `yaml:"depth" validate:"oneof=brief standard deep"`
	SnapshotDate string             `yaml:"snapshot_date" validate:"datetime=2006-01-02"`
	Persona      string             `yaml:"persona" validate:"oneof=corporate_strategy retail_investor"`
	Benchmarks   []string           `yaml:"benchmarks" validate:"dive,required"`
	Policies     []string           `yaml:"policies"`
	Constraints  Constraints        `yaml:"constraints"`
	Output       Output             `yaml:"output"`
	Financials   Financials         `yaml:"financials"`
	DataPrefs    DataPrefs          `yaml:"data_prefs"`
	RiskLens     map[string]float64 `yaml:"risk_lens" validate:"dive,gte=0,lte=1"`
	Cadence      string             `yaml:"cadence" validate:"omitempty,oneof=adhoc daily weekly monthly"`
}

// Constraints bound the size of the produced report.
type Constraints struct {
	MaxPages      int `yaml:"max_pages" json:"max_pages" validate:"gte=1"`
	MaxCharts     int `yaml:"max_charts" json:"max_charts" validate:"gte=0"`
	MinReferences int `yaml:"min_references" json:"min_references" validate:"gte=1"`
}

// Output selects the deliverable format and sections.
type Output struct {
	Format   string   `yaml:"format" json:"format" validate:"oneof=pdf html"`
	Language string   `yaml:"language" json:"language"`
	Sections []string `yaml:"sections" json:"sections"`
}

// Financials configures the stock branch.
type Financials struct {
	BaseCurrency    string   `yaml:"base_currency" json:"base_currency" validate:"len=3"`
	Multiples       []string `yaml:"multiples" json:"multiples"`
	EventWindowDays int      `yaml:"event_window_days" json:"event_window_days" validate:"gte=0"`
}

// DataPrefs orders preferred languages and source kinds.
type DataPrefs struct {
	LanguagePriority []string `yaml:"language_priority" json:"language_priority"`
	SourcePriority   []string `yaml:"source_priority" json:"source_priority"`
}

// LLM selects the summarization backend.
type LLM struct {
	Provider    string  `yaml:"provider" validate:"oneof=openai langchain none"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url" validate:"omitempty,url"`
	Temperature float64 `yaml:"temperature" validate:"gte=0,lte=2"`
	APIKey      string  `yaml:"-"`
}

// Search selects the web search backend used for document retrieval.
type Search struct {
	Provider   string `yaml:"provider" validate:"oneof=tavily brave none"`
	MaxResults int    `yaml:"max_results" validate:"gte=1,lte=20"`
	APIKey     string `yaml:"-"`
}

// Finance selects the price data backend.
type Finance struct {
	Provider string `yaml:"provider" validate:"oneof=alphavantage offline"`
	BaseURL  string `yaml:"base_url" validate:"omitempty,url"`
	APIKey   string `yaml:"-"`
}

// Export configures the document renderer chain.
type Export struct {
	Name        string        `yaml:"name" validate:"required,excludesall=/\\"`
	ChromePath  string        `yaml:"chrome_path"`
	Wkhtmltopdf string        `yaml:"wkhtmltopdf"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Store selects where audit checkpoints go.
type Store struct {
	Backend string `yaml:"backend" validate:"oneof=none memory file sqlite redis postgres"`
	DSN     string `yaml:"dsn" validate:"required_if=Backend file,required_if=Backend sqlite,required_if=Backend redis,required_if=Backend postgres"`
}

// Config is the complete configuration file.
type Config struct {
	Run       `yaml:",inline"`
	LLM       LLM     `yaml:"llm"`
	Search    Search  `yaml:"search"`
	Finance   Finance `yaml:"finance"`
	Export    Export  `yaml:"export"`
	Store     Store   `yaml:"store"`
	OutputDir string  `yaml:"output_dir" validate:"required"`
	LogLevel  string  `yaml:"log_level" validate:"omitempty,oneof=debug info warn error none"`
}

// DefaultSections is the outline used when the configuration names none.
var DefaultSections = []string{
	"summary", "market", "demand_pricing", "policy", "battery_supply",
	"competition", "implications", "stock", "charts", "references", "appendix",
}

// DefaultRun returns the run parameters used for every omitted field.
func DefaultRun() Run {
	return Run{
		Period:       "last_90d",
		Regions:      []string{"global"},
		Depth:        "standard",
		SnapshotDate: time.Now().Format(time.DateOnly),
		Persona:      "corporate_strategy",
		Constraints:  Constraints{MaxPages: 12, MaxCharts: 6, MinReferences: 6},
		Output:       Output{Format: "pdf", Language: "en"},
		Financials: Financials{
			BaseCurrency:    "USD",
			Multiples:       []string{"PS", "EV_EBITDA"},
			EventWindowDays: 7,
		},
		DataPrefs: DataPrefs{
			LanguagePriority: []string{"en", "ko"},
			SourcePriority:   []string{"filing", "IR", "government", "press"},
		},
		RiskLens: map[string]float64{
			"demand":       0.35,
			"policy":       0.25,
			"supply_chain": 0.2,
			"tech":         0.2,
		},
		Cadence: "adhoc",
	}
}

// Default returns a configuration that runs fully offline.
func Default() Config {
	return Config{
		Run:       DefaultRun(),
		LLM:       LLM{Provider: "openai", Model: "gpt-4o-mini", Temperature: 0.3},
		Search:    Search{Provider: "tavily", MaxResults: 3},
		Finance:   Finance{Provider: "offline"},
		Export:    Export{Name: "ev_trend_report", Timeout: 60 * time.Second},
		Store:     Store{Backend: "memory"},
		OutputDir: "outputs",
		LogLevel:  "info",
	}
}

// WithDefaults returns a copy of r with every zero field replaced by its default.
func (r Run) WithDefaults() Run {
	d := DefaultRun()
	if r.Period == "" {
		r.Period = d.Period
	}
	if len(r.Regions) == 0 {
		r.Regions = d.Regions
	}
	if r.Depth == "" {
		r.Depth = d.Depth
	}
	if r.SnapshotDate == "" {
		r.SnapshotDate = d.SnapshotDate
	}
	if r.Persona == "" {
		r.Persona = d.Persona
	}
	if r.Constraints.MaxPages == 0 {
		r.Constraints.MaxPages = d.Constraints.MaxPages
	}
	if r.Constraints.MinReferences == 0 {
		r.Constraints.MinReferences = d.Constraints.MinReferences
	}
	if r.Output.Format == "" {
		r.Output.Format = d.Output.Format
	}
	if r.Output.Language == "" {
		r.Output.Language = d.Output.Language
	}
	if r.Financials.BaseCurrency == "" {
		r.Financials.BaseCurrency = d.Financials.BaseCurrency
	}
	if r.Financials.Multiples == nil {
		r.Financials.Multiples = d.Financials.Multiples
	}
	if r.DataPrefs.LanguagePriority == nil {
		r.DataPrefs.LanguagePriority = d.DataPrefs.LanguagePriority
	}
	if r.DataPrefs.SourcePriority == nil {
		r.DataPrefs.SourcePriority = d.DataPrefs.SourcePriority
	}
	if r.RiskLens == nil {
		r.RiskLens = d.RiskLens
	}
	if r.Cadence == "" {
		r.Cadence = d.Cadence
	}
	r.Financials.BaseCurrency = strings.ToUpper(r.Financials.BaseCurrency)
	return r
}

var validate = validator.New()

// Validate checks field constraints and returns a readable error.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Parse decodes YAML over the defaults, fills remaining zero fields and validates.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.Run = cfg.Run.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// ResolveSecrets fills API keys from the environment lookup.
func (c *Config) ResolveSecrets(getenv func(string) string) {
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = getenv("OPENAI_API_KEY")
	}
	if c.Search.APIKey == "" {
		switch c.Search.Provider {
		case "tavily":
			c.Search.APIKey = getenv("TAVILY_API_KEY")
		case "brave":
			c.Search.APIKey = getenv("BRAVE_API_KEY")
		}
	}
	if c.Finance.APIKey == "" {
		c.Finance.APIKey = getenv("ALPHAVANTAGE_API_KEY")
	}
}
