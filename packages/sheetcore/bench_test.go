package sheetcore

import (
	"fmt"
	"testing"
)

func newBenchSheet(b *testing.B, policy RecalcPolicy) *Sheet {
	b.Helper()
	cfg := DefaultConfig()
	cfg.Policy = policy
	s, err := New(WithConfig(cfg), WithLogger(quietLogger()))
	if err != nil {
		b.Fatal(err)
	}
	return s
}

func BenchmarkLargeCellPopulation(b *testing.B) {
	for i := 0; i < b.N; i++ {
		s := newBenchSheet(b, PolicyLazy)
		for row := 1; row <= 100; row++ {
			for col := 0; col < 26; col++ {
				s.Put(fmt.Sprintf("%c%d", 'A'+col, row), fmt.Sprint(row*(col+1)))
			}
		}
	}
}

func BenchmarkFormulaDependencyChain(b *testing.B) {
	s := newBenchSheet(b, PolicyLazy)
	s.Put("A1", "1")
	for i := 2; i <= 100; i++ {
		s.Put(fmt.Sprintf("A%d", i), fmt.Sprintf("=A%d+1", i-1))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Put("A1", fmt.Sprint(i))
		s.Get("A100")
	}
}

func BenchmarkWideDependencyFanOut(b *testing.B) {
	for _, policy := range []RecalcPolicy{PolicyLazy, PolicyEager} {
		b.Run(string(policy), func(b *testing.B) {
			s := newBenchSheet(b, policy)
			s.Put("A1", "100")
			for i := 2; i <= 500; i++ {
				s.Put(fmt.Sprintf("B%d", i), "=A1*2")
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				s.Put("A1", fmt.Sprint(i))
				s.Get("B250")
			}
		})
	}
}

func BenchmarkLargeRangeSUM(b *testing.B) {
	s := newBenchSheet(b, PolicyLazy)
	for i := 1; i <= 1000; i++ {
		s.Put(fmt.Sprintf("A%d", i), fmt.Sprint(i))
	}
	s.Put("B1", "=SUM(A1:A1000)")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Put("A500", fmt.Sprint(i))
		s.Get("B1")
	}
}

func BenchmarkComplexNestedFormulas(b *testing.B) {
	s := newBenchSheet(b, PolicyLazy)
	for i := 1; i <= 20; i++ {
		s.Put(fmt.Sprintf("A%d", i), fmt.Sprint(i))
		s.Put(fmt.Sprintf("B%d", i), fmt.Sprint(i*2))
	}
	s.Put("C1", "=IF(AVERAGE(A1:A20)>10, SUM(B1:B20), MAX(A1:A20))")
	s.Put("D1", "=ROUND(SQRT(C1)*3.14159, 2)")
	s.Put("E1", "=IF(D1>100, MIN(A1:A20), MIN(B1:B20))")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Put("A1", fmt.Sprint(i%20))
		s.Get("E1")
	}
}

func BenchmarkCascadingUpdates(b *testing.B) {
	s := newBenchSheet(b, PolicyEager)
	for row := 1; row <= 50; row++ {
		for col := 0; col < 10; col++ {
			ref := fmt.Sprintf("%c%d", 'A'+col, row)
			if col == 0 {
				s.Put(ref, fmt.Sprint(row))
				continue
			}
			s.Put(ref, fmt.Sprintf("=%c%d*2", 'A'+col-1, row))
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Put("A1", fmt.Sprint(i%100))
	}
}

func BenchmarkCircularReferenceDetection(b *testing.B) {
	for i := 0; i < b.N; i++ {
		s := newBenchSheet(b, PolicyLazy)
		s.Put("A1", "=B1+C1")
		s.Put("B1", "=C1+D1")
		s.Put("C1", "=D1+E1")
		s.Put("D1", "=E1+F1")
		s.Put("E1", "=F1+G1")
		s.Put("F1", "=G1+H1")
		s.Put("G1", "=H1+A1") // rejected
		s.Put("H1", "=A1")    // rejected
	}
}

func BenchmarkManySmallFormulas(b *testing.B) {
	s := newBenchSheet(b, PolicyLazy)
	for row := 1; row <= 100; row++ {
		s.Put(fmt.Sprintf("A%d", row), fmt.Sprint(row))
		s.Put(fmt.Sprintf("B%d", row), fmt.Sprintf("=A%d*2", row))
		s.Put(fmt.Sprintf("C%d", row), fmt.Sprintf("=B%d+A%d", row, row))
		s.Put(fmt.Sprintf("D%d", row), fmt.Sprintf("=C%d/2", row))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for row := 1; row <= 100; row++ {
			s.Get(fmt.Sprintf("D%d", row))
		}
		s.Put("A1", fmt.Sprint(i))
	}
}

func BenchmarkParseFormula(b *testing.B) {
	for i := 0; i < b.N; i++ {
		ParseFormula(`=IF(SUM(A1:B20)>=100, ROUND(AVERAGE(C1:C9)*1.5e2, 2), "low" & D4)`, 1, DefaultMaxFormulaDepth)
	}
}
