package sector

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Upper bounds accepted by ParseDice.
const (
	MaxDiceCount = 100
	MaxDiceSides = 1000
)

// Dice is a parsed damage expression of the form NdM+K.
type Dice struct {
	Count    int
	Sides    int
	Modifier int
}

// ParseDice parses expressions such as "1d6", "2d4+1", "1d10-2", "3" and
// the empty string or "none" (zero damage).
func ParseDice(expr string) (Dice, error) {
	s := strings.ToLower(strings.ReplaceAll(expr, " ", ""))
	if s == "" || s == "none" || s == "-" {
		return Dice{}, nil
	}

	d, rest, found := strings.Cut(s, "d")
	if !found {
		k, err := strconv.Atoi(s)
		if err != nil {
			return Dice{}, fmt.Errorf("parse dice %q: %w", expr, err)
		}
		return Dice{Modifier: k}, nil
	}

	var out Dice
	if d == "" {
		out.Count = 1
	} else {
		n, err := strconv.Atoi(d)
		if err != nil || n < 0 || n > MaxDiceCount {
			return Dice{}, fmt.Errorf("parse dice %q: bad count", expr)
		}
		out.Count = n
	}

	sides := rest
	sign := 0
	if i := strings.IndexAny(rest, "+-"); i >= 0 {
		sides = rest[:i]
		sign = 1
		if rest[i] == '-' {
			sign = -1
		}
		k, err := strconv.Atoi(rest[i+1:])
		if err != nil {
			return Dice{}, fmt.Errorf("parse dice %q: bad modifier", expr)
		}
		out.Modifier = sign * k
	}
	m, err := strconv.Atoi(sides)
	if err != nil || m <= 0 || m > MaxDiceSides {
		return Dice{}, fmt.Errorf("parse dice %q: bad sides", expr)
	}
	out.Sides = m
	return out, nil
}

// Expected returns the mean of the expression, floored at zero.
func (d Dice) Expected() float64 {
	mean := float64(d.Count)*float64(d.Sides+1)/2 + float64(d.Modifier)
	if mean < 0 {
		return 0
	}
	return mean
}

// Roll draws one result from r, floored at zero.
func (d Dice) Roll(r *rand.Rand) int {
	total := d.Modifier
	for range d.Count {
		total += r.Intn(d.Sides) + 1
	}
	return max(total, 0)
}

func (d Dice) String() string {
	if d.Count == 0 {
		return strconv.Itoa(d.Modifier)
	}
	s := fmt.Sprintf("%dd%d", d.Count, d.Sides)
	switch {
	case d.Modifier > 0:
		s += fmt.Sprintf("+%d", d.Modifier)
	case d.Modifier < 0:
		s += strconv.Itoa(d.Modifier)
	}
	return s
}
