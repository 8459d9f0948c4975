package models

// AgentType identifies the behavioral class of a trading agent.
type AgentType int

const (
	AgentRetail        AgentType = iota // momentum-prone, high herding
	AgentInstitutional                  // fundamental, risk-aware
	AgentNoise                          // liquidity/noise provider
)

// String returns the lowercase label used in logs and snapshots.
func (t AgentType) String() string {
	switch t {
	case AgentRetail:
		return "retail"
	case AgentInstitutional:
		return "institutional"
	case AgentNoise:
		return "noise"
	default:
		return "unknown"
	}
}

// RegimeState is the macro news regime: calm or stressed.
type RegimeState int

const (
	RegimeCalm RegimeState = iota
	RegimeStressed
)

func (r RegimeState) String() string {
	if r == RegimeStressed {
		return "stressed"
	}
	return "calm"
}

// StepRecord is the per-step output of the simulation, one per discrete step
// in increasing time order with no gaps. Halted steps repeat the price with a
// zero return.
type StepRecord struct {
	Time       uint64      `json:"time"`
	Price      float64     `json:"price"`
	LogReturn  float64     `json:"log_return"`
	Volatility float64     `json:"volatility"`
	Shock      float64     `json:"shock"`
	Regime     RegimeState `json:"regime"`
	Halted     bool        `json:"halted"`
}

// AgentSnapshot is a read-only diagnostic view of one agent.
type AgentSnapshot struct {
	ID       uint32  `json:"id"`
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	Belief   float64 `json:"belief"`
	Position int     `json:"position"`
	Cash     float64 `json:"cash"`
}

// RunSummary aggregates whole-run statistics for reporting and for the batch
// experiment runner.
type RunSummary struct {
	Steps         uint64  `json:"steps"`
	FinalPrice    float64 `json:"final_price"`
	Variance      float64 `json:"variance"`
	Kurtosis      float64 `json:"kurtosis"`
	JumpCount     int64   `json:"jump_count"`
	JumpFrequency float64 `json:"jump_frequency"`
	HaltCount     int64   `json:"halt_count"`
	RegimeFlips   int64   `json:"regime_flips"`
}
