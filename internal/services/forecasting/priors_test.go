package forecasting

import (
	"math"
	"testing"
)

func TestLearnPriorsConjugateUpdate(t *testing.T) {
	pooled := map[string][]float64{
		"Mains": {6, 6, 6, 6, 6, 6, 6, 6, 6, 6},
	}
	priors := LearnPriors(DefaultGlobalPrior, pooled)

	p, ok := priors["Mains"]
	if !ok {
		t.Fatalf("missing prior for Mains")
	}
	if p.Alpha != 2.0+60 || p.Beta != 0.5+10 {
		t.Fatalf("prior = (%v, %v), want (62, 10.5)", p.Alpha, p.Beta)
	}
	if math.Abs(p.Mean()-62.0/10.5) > 1e-9 {
		t.Fatalf("prior mean = %v, want %v", p.Mean(), 62.0/10.5)
	}
}

func TestLearnPriorsEmptyGroupGetsGlobal(t *testing.T) {
	priors := LearnPriors(DefaultGlobalPrior, map[string][]float64{"Desserts": {}})
	if priors["Desserts"] != DefaultGlobalPrior {
		t.Fatalf("empty group prior = %+v, want global", priors["Desserts"])
	}
}

func TestLearnPriorsStayPositive(t *testing.T) {
	pooled := map[string][]float64{
		"A": {0, 0, 0},
		"B": {0.5},
		"C": {},
	}
	for group, p := range LearnPriors(DefaultGlobalPrior, pooled) {
		if p.Alpha <= 0 || p.Beta <= 0 {
			t.Fatalf("group %s prior (%v, %v) not strictly positive", group, p.Alpha, p.Beta)
		}
	}
}
