package amortization

import (
	"testing"
	"time"
)

func BenchmarkGenerate(b *testing.B) {
	generator := NewScheduleGenerator(nil)
	loan := LoanTerms{
		Name:              "benchmark",
		StartDate:         "2025-01",
		Principal:         1500000,
		DownPayment:       375000,
		TermYears:         30,
		AnnualRatePercent: 5,
		ExtraPayments:     map[string]float64{"2030-01": 100000, "2035-01": 100000},
	}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := generator.Generate(loan); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMonthlyPayment(b *testing.B) {
	total, down := Amount(1000000), Amount(250000)
	for i := 0; i < b.N; i++ {
		MonthlyPayment(total, down, float64(4+i%27), 5)
	}
}

// TestSchedulePerformance guards against accidental quadratic work in the
// schedule loop.
func TestSchedulePerformance(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping performance test in short mode")
	}

	generator := NewScheduleGenerator(nil)
	start := time.Now()
	for i := 0; i < 1000; i++ {
		if _, err := generator.Generate(LoanTerms{
			StartDate:         "2025-01",
			Principal:         800000,
			TermYears:         30,
			AnnualRatePercent: 4.5,
		}); err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("1000 schedules took %v, expected well under 10s", elapsed)
	}
}
