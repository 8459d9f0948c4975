package config

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the immutable parameter bundle for one simulation run. Every
// behavioral constant of the model lives here; the core never reads anything
// else at runtime.
type Config struct {
	Run        RunConfig        `yaml:"run"`
	Population PopulationConfig `yaml:"population"`
	Market     MarketConfig     `yaml:"market"`
	News       NewsConfig       `yaml:"news"`
	Diffusion  DiffusionConfig  `yaml:"diffusion"`
	Stats      StatsConfig      `yaml:"stats"`
}

type RunConfig struct {
	Steps        int    `yaml:"steps" default:"3000" validate:"gt=0"`
	Seed         uint64 `yaml:"seed" default:"42"`
	Replications int    `yaml:"replications" default:"1" validate:"gt=0"`
	Workers      int    `yaml:"workers" default:"4" validate:"gt=0"`
	OutputPath   string `yaml:"output_path" default:"prices.csv"`
	MetricsPath  string `yaml:"metrics_path"`
	Log          struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"log"`
}

// TypeParams are the behavioral parameters of one agent type.
type TypeParams struct {
	Aggressiveness   float64 `yaml:"aggressiveness" validate:"gte=0"`
	RiskAversion     float64 `yaml:"risk_aversion" validate:"gte=0"`
	NetworkInfluence float64 `yaml:"network_influence" validate:"gte=0"`
	NoiseStd         float64 `yaml:"noise_std" validate:"gte=0"`
}

type PopulationConfig struct {
	Size int `yaml:"size" default:"400" validate:"gt=0"`

	RetailShare        float64 `yaml:"retail_share" default:"0.6" validate:"gte=0,lte=1"`
	InstitutionalShare float64 `yaml:"institutional_share" default:"0.3" validate:"gte=0,lte=1"`
	NoiseShare         float64 `yaml:"noise_share" default:"0.1" validate:"gte=0,lte=1"`

	MeanDegree int `yaml:"mean_degree" default:"4" validate:"gte=0"`

	TradeSizeScale     float64 `yaml:"trade_size_scale" default:"1.0" validate:"gt=0"`
	LiquidityTolerance float64 `yaml:"liquidity_tolerance" default:"0.02" validate:"gte=0"`
	BeliefUpdateRate   float64 `yaml:"belief_update_rate" default:"0.05" validate:"gte=0,lte=1"`

	Retail        TypeParams `yaml:"retail"`
	Institutional TypeParams `yaml:"institutional"`
	Noise         TypeParams `yaml:"noise"`
}

// SetDefaults fills untouched per-type parameter blocks. A block the user
// configured at all is taken as-is, so explicit zeros survive.
func (p *PopulationConfig) SetDefaults() {
	var zero TypeParams
	if p.Retail == zero {
		p.Retail = TypeParams{Aggressiveness: 1.0, RiskAversion: 0.2, NetworkInfluence: 0.7, NoiseStd: 0.6}
	}
	if p.Institutional == zero {
		p.Institutional = TypeParams{Aggressiveness: 0.5, RiskAversion: 0.8, NetworkInfluence: 0.1, NoiseStd: 0.2}
	}
	if p.Noise == zero {
		p.Noise = TypeParams{Aggressiveness: 0.2, RiskAversion: 0.1, NetworkInfluence: 0.0, NoiseStd: 1.0}
	}
}

type MarketConfig struct {
	InitialPrice      float64 `yaml:"initial_price" default:"100.0" validate:"gt=0"`
	Liquidity         float64 `yaml:"liquidity" default:"1200.0" validate:"gt=0"`
	ImpactCoefficient float64 `yaml:"impact_coefficient" default:"1.0" validate:"gt=0"`
	VolatilityDecay   float64 `yaml:"volatility_decay" default:"0.94" validate:"gt=0,lt=1"`
	MaxPriceChange    float64 `yaml:"max_price_change" default:"5.0" validate:"gt=0"`
	HaltThreshold     float64 `yaml:"halt_threshold" default:"0.15" validate:"gt=0"`
}

type NewsConfig struct {
	PSwitchToStress float64 `yaml:"p_switch_to_stress" default:"0.002" validate:"gte=0,lte=1"`
	PSwitchToCalm   float64 `yaml:"p_switch_to_calm" default:"0.01" validate:"gte=0,lte=1"`
	ArrivalCalm     float64 `yaml:"arrival_calm" default:"0.01" validate:"gte=0,lte=1"`
	ArrivalStressed float64 `yaml:"arrival_stressed" default:"0.05" validate:"gte=0,lte=1"`
	ScaleCalm       float64 `yaml:"scale_calm" default:"2.0" validate:"gt=0"`
	ScaleStressed   float64 `yaml:"scale_stressed" default:"8.0" validate:"gt=0"`
}

type DiffusionConfig struct {
	// Transmission selects how shocks reach agents: "network" runs the
	// multi-round diffusion; "broadcast" applies the raw shock to every
	// agent directly.
	Transmission  string  `yaml:"transmission" default:"network" validate:"oneof=network broadcast"`
	Rounds        int     `yaml:"rounds" default:"3" validate:"gte=0"`
	BaseAttention float64 `yaml:"base_attention" default:"0.6" validate:"gt=0"`
}

type StatsConfig struct {
	JumpThreshold float64 `yaml:"jump_threshold" default:"0.05" validate:"gt=0"`
	EWMADecay     float64 `yaml:"ewma_decay" default:"0.94" validate:"gt=0,lt=1"`
}

var validate = validator.New()

// Load reads and parses a YAML configuration file, applies defaults, and
// validates the result. All invalid configuration is rejected here, before
// any simulation step runs.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Finalize(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Default returns a configuration with every field at its default value.
func Default() (*Config, error) {
	var c Config
	if err := c.Finalize(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Finalize applies defaults and validates the configuration in place.
func (c *Config) Finalize() error {
	if err := defaults.Set(c); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// Validate checks the configuration, including the cross-field constraints
// struct tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	shares := c.Population.RetailShare + c.Population.InstitutionalShare + c.Population.NoiseShare
	if shares < 0.999 || shares > 1.001 {
		return fmt.Errorf("population shares must sum to 1, got %.3f", shares)
	}
	if c.Population.MeanDegree >= c.Population.Size {
		return fmt.Errorf("mean_degree %d must be below population size %d", c.Population.MeanDegree, c.Population.Size)
	}
	if c.News.ArrivalCalm > c.News.ArrivalStressed {
		return fmt.Errorf("arrival_calm %.4f must not exceed arrival_stressed %.4f", c.News.ArrivalCalm, c.News.ArrivalStressed)
	}
	return nil
}
