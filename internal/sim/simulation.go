// Package sim orchestrates the discrete-time simulation: one step wires the
// news process, information diffusion, agent demand, market clearing, belief
// updates and the statistics estimator together in a strictly sequential,
// single-threaded order. A run is fully determined by its configuration and
// seed.
package sim

import (
	"fmt"
	"math"

	"jumpsim/internal/diffusion"
	"jumpsim/internal/domain/models"
	"jumpsim/internal/market"
	"jumpsim/internal/news"
	"jumpsim/internal/output"
	"jumpsim/internal/rng"
	"jumpsim/internal/stats"
	"jumpsim/pkg/config"
	"jumpsim/pkg/logger"
	"jumpsim/pkg/metrics"
)

// Simulation holds the full object graph of one run. It is not safe for
// concurrent use; parallel experiments each build their own Simulation.
type Simulation struct {
	cfg   *config.Config
	runID string

	log *logger.Logger
	rec *metrics.Recorder

	market *market.Market
	news   *news.Process
	pop    *Population
	est    *stats.Estimator
	sink   output.Sink

	step        uint64
	haltCount   int64
	regimeFlips int64
	lastRegime  models.RegimeState

	beliefs []float64 // per-step belief snapshot, reused across steps
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger attaches a structured logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Simulation) { s.log = log }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *Simulation) { s.rec = rec }
}

// WithSink directs per-step records to the given sink.
func WithSink(sink output.Sink) Option {
	return func(s *Simulation) { s.sink = sink }
}

// WithRunID sets the identifier attached to logs and metrics.
func WithRunID(id string) Option {
	return func(s *Simulation) { s.runID = id }
}

// New builds a simulation from a validated configuration. All seeds are
// derived from the configured master seed in a fixed order, so two
// simulations built from identical configurations are identical.
func New(cfg *config.Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	s := &Simulation{
		cfg:   cfg,
		runID: "run",
		log:   logger.Nop(),
		sink:  &output.MemorySink{},
	}
	for _, opt := range opts {
		opt(s)
	}

	master := rng.New(cfg.Run.Seed)

	s.news = news.New(news.Config{
		PSwitchToStress: cfg.News.PSwitchToStress,
		PSwitchToCalm:   cfg.News.PSwitchToCalm,
		ArrivalCalm:     cfg.News.ArrivalCalm,
		ArrivalStressed: cfg.News.ArrivalStressed,
		ScaleCalm:       cfg.News.ScaleCalm,
		ScaleStressed:   cfg.News.ScaleStressed,
	}, master.Uint64())

	s.pop = BuildPopulation(cfg, master)

	s.market = market.New(
		cfg.Market.InitialPrice,
		cfg.Market.Liquidity,
		cfg.Market.ImpactCoefficient,
		cfg.Market.VolatilityDecay,
		cfg.Market.MaxPriceChange,
	)

	s.est = stats.New(cfg.Stats.JumpThreshold, cfg.Stats.EWMADecay)
	s.beliefs = make([]float64, len(s.pop.Agents))
	s.lastRegime = s.news.Regime()

	return s, nil
}

// Step executes one discrete time step and emits one record. The only error
// source is the output sink; the simulation itself is total.
func (s *Simulation) Step() error {
	s.market.BeginStep()

	shock := s.news.Step()
	regime := s.news.Regime()
	if regime != s.lastRegime {
		s.regimeFlips++
		s.lastRegime = regime
		if s.rec != nil {
			s.rec.RecordRegimeFlip(s.runID)
		}
		s.log.Info("regime transition",
			logger.Uint64("step", s.step),
			logger.String("regime", regime.String()))
	}

	if shock != 0.0 {
		if s.rec != nil {
			s.rec.RecordShock(s.runID, shock)
		}
		s.transmitShock(shock)
	}

	// Snapshot beliefs so every agent's herding term reads the same
	// pre-step values regardless of visitation order.
	for i, a := range s.pop.Agents {
		s.beliefs[i] = a.Belief
	}
	avgBelief := s.pop.AvgBelief()

	// Demand collection and mean-field execution: requested demand fills in
	// full at the pre-clear price, rounded to an integer lot.
	price := s.market.Price()
	for i, a := range s.pop.Agents {
		demand := a.ComputeDemand(price, shock, s.neighborAvgBelief(i))
		s.market.AddDemand(demand)
		executed := int(math.Round(demand))
		a.ApplyExecution(executed, price)
	}

	s.market.Clear()
	s.market.UpdateVolatility()

	for _, a := range s.pop.Agents {
		a.UpdateBelief(s.market.Price(), shock, avgBelief)
	}

	logReturn := s.market.LogReturn()
	s.est.Update(logReturn)
	if s.est.IsJump(logReturn) {
		if s.rec != nil {
			s.rec.RecordJump(s.runID)
		}
		s.log.Info("jump detected",
			logger.Uint64("step", s.step),
			logger.Float64("log_return", logReturn),
			logger.Float64("price", s.market.Price()))
	}

	rec := models.StepRecord{
		Time:       s.step,
		Price:      s.market.Price(),
		LogReturn:  logReturn,
		Volatility: s.market.Volatility(),
		Shock:      shock,
		Regime:     regime,
		Halted:     s.market.Halted(),
	}
	s.step++

	if s.rec != nil {
		s.rec.RecordStep(s.runID)
		s.rec.RecordPrice(s.runID, rec.Price, rec.Volatility)
	}

	if err := s.sink.Write(rec); err != nil {
		return fmt.Errorf("write step record: %w", err)
	}

	s.applyCircuitBreaker(logReturn)
	return nil
}

// transmitShock routes a nonzero shock to the population, either through the
// diffusion network or as a raw broadcast, per configuration.
func (s *Simulation) transmitShock(shock float64) {
	if s.cfg.Diffusion.Transmission == "broadcast" {
		for _, a := range s.pop.Agents {
			a.ApplyShock(shock)
		}
		return
	}
	diffusion.Propagate(s.pop.Agents, s.pop.Network, diffusion.Config{
		Rounds:        s.cfg.Diffusion.Rounds,
		BaseAttention: s.cfg.Diffusion.BaseAttention,
	}, shock)
}

// neighborAvgBelief returns the mean pre-step belief of agent i's neighbors,
// or 0 when it has none (herding is zero in that case anyway).
func (s *Simulation) neighborAvgBelief(i int) float64 {
	nbrs := s.pop.Network.Neighbors(i)
	if len(nbrs) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, id := range nbrs {
		sum += s.beliefs[id]
	}
	return sum / float64(len(nbrs))
}

// applyCircuitBreaker halts the market when the step return breaches the
// halt threshold and resumes it otherwise. A halt is a first-class market
// state, not an error: halted steps still emit records.
func (s *Simulation) applyCircuitBreaker(logReturn float64) {
	if math.Abs(logReturn) > s.cfg.Market.HaltThreshold {
		if !s.market.Halted() {
			s.haltCount++
			if s.rec != nil {
				s.rec.RecordHalt(s.runID)
			}
			s.log.Warn("circuit breaker engaged",
				logger.Uint64("step", s.step),
				logger.Float64("log_return", logReturn))
		}
		s.market.Halt()
		return
	}
	if s.market.Halted() {
		s.log.Info("circuit breaker released", logger.Uint64("step", s.step))
	}
	s.market.Resume()
}

// Run executes the configured number of steps. An interrupted run is
// incomplete rather than failed, so there is no cancellation path here.
func (s *Simulation) Run() error {
	s.log.Info("simulation start",
		logger.String("run", s.runID),
		logger.Uint64("seed", s.cfg.Run.Seed),
		logger.Int("agents", len(s.pop.Agents)),
		logger.Int("steps", s.cfg.Run.Steps))

	for i := 0; i < s.cfg.Run.Steps; i++ {
		if err := s.Step(); err != nil {
			return err
		}
	}

	sum := s.Summary()
	s.log.Info("simulation complete",
		logger.String("run", s.runID),
		logger.Float64("final_price", sum.FinalPrice),
		logger.Float64("variance", sum.Variance),
		logger.Float64("kurtosis", sum.Kurtosis),
		logger.Int64("jumps", sum.JumpCount),
		logger.Int64("halts", sum.HaltCount))
	return nil
}

// Summary returns whole-run statistics.
func (s *Simulation) Summary() models.RunSummary {
	return models.RunSummary{
		Steps:         s.step,
		FinalPrice:    s.market.Price(),
		Variance:      s.est.Variance(),
		Kurtosis:      s.est.Kurtosis(),
		JumpCount:     s.est.JumpCount(),
		JumpFrequency: s.est.JumpFrequency(),
		HaltCount:     s.haltCount,
		RegimeFlips:   s.regimeFlips,
	}
}

// Snapshots returns diagnostic agent views without touching simulation state.
func (s *Simulation) Snapshots() []models.AgentSnapshot {
	return s.pop.Snapshots()
}

// Market exposes the market for inspection in tests and tooling.
func (s *Simulation) Market() *market.Market { return s.market }

// Stats exposes the streaming estimator.
func (s *Simulation) Stats() *stats.Estimator { return s.est }
