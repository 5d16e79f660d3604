package vectorstore

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// DefaultTopK is the number of passages a lookup retrieves.
const DefaultTopK = 10

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Metric scores a passage vector against a query vector. Higher is better.
type Metric int

const (
	Cosine Metric = iota
	Dot
	Euclidean
)

// ParseMetric maps a config string to a Metric. Empty means Cosine.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cosine":
		return Cosine, nil
	case "dot":
		return Dot, nil
	case "euclidean", "l2":
		return Euclidean, nil
	default:
		return Cosine, fmt.Errorf("unknown metric %q", s)
	}
}

func (m Metric) String() string {
	switch m {
	case Cosine:
		return "cosine"
	case Dot:
		return "dot"
	case Euclidean:
		return "euclidean"
	default:
		return fmt.Sprintf("Metric(%d)", int(m))
	}
}

// Score compares a and b, which must have equal length. Euclidean distance
// is negated so that larger scores always mean closer vectors. Cosine of a
// zero vector is 0.
func (m Metric) Score(a, b []float64) float64 {
	switch m {
	case Dot:
		return dot(a, b)
	case Euclidean:
		sum := 0.0
		for i := range a {
			d := a[i] - b[i]
			sum += d * d
		}
		return -math.Sqrt(sum)
	default:
		na, nb := dot(a, a), dot(b, b)
		if na == 0 || nb == 0 {
			return 0
		}
		return dot(a, b) / (math.Sqrt(na) * math.Sqrt(nb))
	}
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
