package feasibility

import "math"

// Demand sums can exceed int64 for adversarial inputs. Every accumulation in
// the tests goes through these helpers and pins at math.MaxInt64, which is
// larger than any deadline and therefore still yields the right verdict.

func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}

func satAdd(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func satMul(a, b int64) int64 {
	m, ok := mulChecked(a, b)
	if !ok {
		return math.MaxInt64
	}
	return m
}

// mulChecked multiplies two non-negative values.
func mulChecked(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a > math.MaxInt64/b {
		return 0, false
	}
	return a * b, true
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
