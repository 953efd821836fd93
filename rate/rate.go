package rate

import (
	"fmt"
	"strconv"
	"strings"
)

// Rate is the number of samples a port moves per activation. A static rate
// has a single count; a cyclo-static rate repeats its counts in order.
// The zero value is invalid.
type Rate struct {
	counts []int
	cyclic bool
}

// Static returns a rate that moves n samples on every activation.
func Static(n int) Rate {
	return Rate{counts: []int{n}}
}

// Cyclic returns a cyclo-static rate. A single-element cycle is kept cyclic
// so it round-trips as a list.
func Cyclic(counts ...int) Rate {
	c := make([]int, len(counts))
	copy(c, counts)
	return Rate{counts: c, cyclic: true}
}

// IsCyclic reports whether the rate was declared as a cycle.
func (r Rate) IsCyclic() bool { return r.cyclic }

// IsZero reports whether the rate was never set.
func (r Rate) IsZero() bool { return len(r.counts) == 0 }

// Period is the cycle length: 1 for a static rate.
func (r Rate) Period() int {
	if !r.cyclic {
		return 1
	}
	return len(r.counts)
}

// At returns the count moved at position pos of the cycle.
func (r Rate) At(pos int) int {
	if !r.cyclic {
		return r.counts[0]
	}
	return r.counts[pos%len(r.counts)]
}

// Total is the number of samples moved over one full cycle.
func (r Rate) Total() int {
	t := 0
	for _, c := range r.counts {
		t += c
	}
	return t
}

// Max is the largest single-activation count.
func (r Rate) Max() int {
	m := 0
	for _, c := range r.counts {
		if c > m {
			m = c
		}
	}
	return m
}

// Counts returns a copy of the cycle counts.
func (r Rate) Counts() []int {
	c := make([]int, len(r.counts))
	copy(c, r.counts)
	return c
}

// Equal reports whether both rates describe the same per-activation counts.
// A static rate never equals a cyclic one.
func (r Rate) Equal(o Rate) bool {
	if r.cyclic != o.cyclic || len(r.counts) != len(o.counts) {
		return false
	}
	for i := range r.counts {
		if r.counts[i] != o.counts[i] {
			return false
		}
	}
	return true
}

// StaticCount returns the count of a static rate.
func (r Rate) StaticCount() (int, bool) {
	if r.cyclic || len(r.counts) != 1 {
		return 0, false
	}
	return r.counts[0], true
}

// Validate checks that counts are non-negative and that a full cycle moves data.
func (r Rate) Validate() error {
	if len(r.counts) == 0 {
		return fmt.Errorf("rate: no sample count")
	}
	for _, c := range r.counts {
		if c < 0 {
			return fmt.Errorf("rate: negative sample count %d", c)
		}
	}
	if r.Total() == 0 {
		return fmt.Errorf("rate: cycle %s moves no samples", r)
	}
	return nil
}

func (r Rate) String() string {
	if !r.cyclic {
		if len(r.counts) == 0 {
			return "<unset>"
		}
		return strconv.Itoa(r.counts[0])
	}
	parts := make([]string, len(r.counts))
	for i, c := range r.counts {
		parts[i] = strconv.Itoa(c)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// GCD returns the greatest common divisor of a and b (non-negative).
func GCD(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// LCM returns the least common multiple of the values; 1 for no values.
func LCM(values ...int) int {
	l := 1
	for _, v := range values {
		if v == 0 {
			continue
		}
		l = l / GCD(l, v) * v
	}
	return l
}
