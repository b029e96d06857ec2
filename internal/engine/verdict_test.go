package engine

import (
	"testing"

	"github.com/truthnetstack/truthnet-orchestrator/internal/models"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		risk float64
		want models.Verdict
	}{
		{0.0, models.VerdictAuthentic},
		{0.29999, models.VerdictAuthentic},
		{0.3, models.VerdictSuspicious},
		{0.59999, models.VerdictSuspicious},
		{0.6, models.VerdictHighRisk},
		{1.0, models.VerdictHighRisk},
	}
	for _, tc := range cases {
		if got := Classify(tc.risk); got != tc.want {
			t.Errorf("Classify(%f) = %s, want %s", tc.risk, got, tc.want)
		}
	}
}
