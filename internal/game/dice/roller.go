package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger so that every rule-deciding draw leaves an
// audit trail. All draws are logged at debug level with the draw kind, its
// bound, and the outcome.
//
// Roller itself satisfies Source, so it can be handed to any function that
// only needs raw integers.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs each draw to logger.
//
// Precondition: src must be non-nil. A nil logger is replaced with zap.NewNop().
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Roller{src: src, logger: logger}
}

// Intn draws from the underlying Source without logging.
//
// Precondition: n > 0.
func (r *Roller) Intn(n int) int {
	return r.src.Intn(n)
}

// Roll draws an int in [0, n) and logs it under kind.
//
// Precondition: n > 0.
func (r *Roller) Roll(kind string, n int) int {
	v := r.src.Intn(n)
	r.logger.Debug("dice roll",
		zap.String("kind", kind),
		zap.Int("bound", n),
		zap.Int("result", v),
	)
	return v
}

// Chance reports whether a draw succeeds with probability p and logs the outcome.
//
// Postcondition: p <= 0 yields false and p >= 1 yields true without drawing.
func (r *Roller) Chance(kind string, p float64) bool {
	if p <= 0 || p >= 1 {
		return p >= 1
	}
	ok := Chance(r.src, p)
	r.logger.Debug("dice roll",
		zap.String("kind", kind),
		zap.Float64("probability", p),
		zap.Bool("success", ok),
	)
	return ok
}

// Between draws a uniform int in [lo, hi] and logs it.
//
// Postcondition: lo <= result <= hi when lo <= hi.
func (r *Roller) Between(kind string, lo, hi int) int {
	v := Between(r.src, lo, hi)
	if hi > lo {
		r.logger.Debug("dice roll",
			zap.String("kind", kind),
			zap.Int("min", lo),
			zap.Int("max", hi),
			zap.Int("result", v),
		)
	}
	return v
}

// RollRange draws a value from a parsed Range and logs it.
func (r *Roller) RollRange(kind string, rg Range) int {
	return r.Between(kind, rg.Min, rg.Max)
}
