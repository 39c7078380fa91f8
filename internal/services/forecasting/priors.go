package forecasting

import "fluxcast/internal/domain/models"

// DefaultGlobalPrior is a deliberately weak Gamma(2.0, 0.5) belief
// (mean 4 units/day) that a handful of real pooled observations
// overrides quickly.
var DefaultGlobalPrior = models.GammaPrior{Alpha: 2.0, Beta: 0.5}

// LearnPriors performs the group-level Poisson-Gamma conjugate update:
// every daily quantity of every item in a pooling group counts as one
// observation of the group's "typical item" rate, so sparse items borrow
// strength from their category. Groups with no observations get the
// global prior unchanged.
//
// The returned map is scoped to the current run. Priors are relearned
// from current pooled data on every forecast; nothing is cached across
// runs.
func LearnPriors(global models.GammaPrior, pooled map[string][]float64) map[string]models.GammaPrior {
	priors := make(map[string]models.GammaPrior, len(pooled))
	for group, samples := range pooled {
		if len(samples) == 0 {
			priors[group] = global
			continue
		}
		sum := 0.0
		for _, q := range samples {
			sum += q
		}
		priors[group] = models.GammaPrior{
			Alpha: global.Alpha + sum,
			Beta:  global.Beta + float64(len(samples)),
		}
	}
	return priors
}
