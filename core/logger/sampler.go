package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratio passes num out of every den events; a zero ratio passes everything.
type ratio struct{ num, den uint64 }

type ratioSampler struct {
	cfg atomic.Pointer[ratio]
	n   atomic.Uint64
}

func newRatioSampler(numerator, denominator int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(numerator, denominator)
	return s
}

// Set replaces the ratio and restarts the cycle.
func (s *ratioSampler) Set(numerator, denominator int) {
	r := &ratio{}
	if numerator > 0 && denominator > 0 {
		r.num, r.den = uint64(min(numerator, denominator)), uint64(denominator)
	}
	s.cfg.Store(r)
	s.n.Store(0)
}

// Allow admits the first num events of every window of den.
func (s *ratioSampler) Allow() bool {
	r := s.cfg.Load()
	if r == nil || r.den == 0 {
		return true
	}
	return (s.n.Add(1)-1)%r.den < r.num
}

// parseRatio accepts "n/d", "d" (one in d) and "p%". Unparsable or
// non-positive specs disable sampling and return 0, 0.
func parseRatio(raw string) (int, int) {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return 0, 0
	case strings.HasSuffix(raw, "%"):
		p, err := strconv.Atoi(strings.TrimSpace(strings.TrimSuffix(raw, "%")))
		if err != nil || p <= 0 {
			return 0, 0
		}
		return min(p, 100), 100
	case strings.Contains(raw, "/"):
		a, b, _ := strings.Cut(raw, "/")
		num, err1 := strconv.Atoi(strings.TrimSpace(a))
		den, err2 := strconv.Atoi(strings.TrimSpace(b))
		if err1 != nil || err2 != nil {
			return 0, 0
		}
		return num, den
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, 0
	}
	return 1, v
}
