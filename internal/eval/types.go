package eval

// #region eval-config
// EvalConfig holds tolerances for post-turn validation.
type EvalConfig struct {
	Tolerance float64 // slack for float comparisons
}

// DefaultEvalConfig returns the defaults used by the trainer.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{
		Tolerance: 1e-6,
	}
}

// #endregion eval-config

// #region eval-metric
// EvalMetric captures a single validation check result.
type EvalMetric struct {
	Name  string
	Value float64
	Pass  bool
}

// #endregion eval-metric

// #region eval-result
// EvalResult is the output of post-turn validation.
type EvalResult struct {
	Passed  bool
	Metrics []EvalMetric
	Reason  string
}

// #endregion eval-result
