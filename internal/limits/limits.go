// Package limits provides typed parameter-constraint tables for
// instrument drivers. Each model declares an immutable table mapping
// parameter names to either a numeric range or an enumerated set of
// allowed strings; drivers check every value against the table before the
// corresponding command is issued to the instrument.
package limits

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors surfaced by constraint checks.
var (
	ErrOutOfRange      = errors.New("value out of range")
	ErrNotInAllowedSet = errors.New("value not in allowed set")
)

// Constraint is a tagged variant: either a closed numeric interval or an
// enumerated set of allowed strings.
type Constraint struct {
	lo, hi  float64
	allowed map[string]struct{}
}

// Range returns a constraint accepting numeric values in [lo, hi].
func Range(lo, hi float64) Constraint {
	return Constraint{lo: lo, hi: hi}
}

// OneOf returns a constraint accepting only the listed strings.
// Matching is case-insensitive, following SCPI mnemonic conventions.
func OneOf(values ...string) Constraint {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToUpper(v)] = struct{}{}
	}
	return Constraint{allowed: set}
}

// IsRange reports whether the constraint is a numeric interval.
func (c Constraint) IsRange() bool { return c.allowed == nil }

// Bounds returns the interval endpoints of a Range constraint.
func (c Constraint) Bounds() (lo, hi float64) { return c.lo, c.hi }

// Values returns the sorted members of a OneOf constraint.
func (c Constraint) Values() []string {
	out := make([]string, 0, len(c.allowed))
	for v := range c.allowed {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Table maps parameter names to their constraints for one instrument
// model. Tables are built at construction time and never mutated.
type Table map[string]Constraint

// CheckNumber validates a numeric parameter against its declared range.
// Parameters absent from the table pass unchecked.
func (t Table) CheckNumber(name string, v float64) error {
	c, ok := t[name]
	if !ok {
		return nil
	}
	if !c.IsRange() {
		return fmt.Errorf("%w: %s=%v (parameter takes one of %s)", ErrNotInAllowedSet, name, v, strings.Join(c.Values(), ", "))
	}
	if v < c.lo || v > c.hi {
		return fmt.Errorf("%w: %s=%v, allowed [%v, %v]", ErrOutOfRange, name, v, c.lo, c.hi)
	}
	return nil
}

// CheckChoice validates an enumerated parameter against its allowed set.
// Parameters absent from the table pass unchecked.
func (t Table) CheckChoice(name, v string) error {
	c, ok := t[name]
	if !ok {
		return nil
	}
	if c.IsRange() {
		return fmt.Errorf("%w: %s=%q (parameter takes a number in [%v, %v])", ErrOutOfRange, name, v, c.lo, c.hi)
	}
	if _, ok := c.allowed[strings.ToUpper(v)]; !ok {
		return fmt.Errorf("%w: %s=%q, allowed %s", ErrNotInAllowedSet, name, v, strings.Join(c.Values(), ", "))
	}
	return nil
}
