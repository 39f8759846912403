package variant

import (
	"slices"
	"strconv"
	"strings"
)

// LegacyMaskSize is the number of palette slots a legacy boolean mask covers.
const LegacyMaskSize = 256

// ColorSet is the ordered set of variant ids that select one record.
//
// Order is construction order and matters: two sets are equal only when they
// hold the same ids in the same order.
type ColorSet []int

// Colors builds a ColorSet from ids, keeping the first occurrence of each id
// and dropping negative ids.
func Colors(ids ...int) ColorSet {
	set := make(ColorSet, 0, len(ids))
	for _, id := range ids {
		if id < 0 || slices.Contains(set, id) {
			continue
		}
		set = append(set, id)
	}
	return set
}

// FromMask converts a legacy palette mask into the ascending ids of its set
// entries.
func FromMask(mask *[LegacyMaskSize]bool) ColorSet {
	if mask == nil {
		return ColorSet{}
	}
	set := ColorSet{}
	for i, on := range mask {
		if on {
			set = append(set, i)
		}
	}
	return set
}

// Contains reports whether id selects this set.
func (c ColorSet) Contains(id int) bool {
	return slices.Contains(c, id)
}

// Equal reports element-wise equality in order. Nil and empty sets are equal.
func (c ColorSet) Equal(other ColorSet) bool {
	return slices.Equal(c, other)
}

// Empty reports whether the set holds no ids.
func (c ColorSet) Empty() bool {
	return len(c) == 0
}

// Clone returns an independent copy.
func (c ColorSet) Clone() ColorSet {
	if c == nil {
		return ColorSet{}
	}
	return slices.Clone(c)
}

// String formats the set as {a,b,c}.
func (c ColorSet) String() string {
	parts := make([]string, len(c))
	for i, id := range c {
		parts[i] = strconv.Itoa(id)
	}
	return "{" + strings.Join(parts, ",") + "}"
}
