package generic

import (
	"math/rand"

	"golang.org/x/exp/maps"
)

// MapValues returns the values of all given maps as one slice. The order is
// unspecified.
func MapValues[K comparable, V any](ms ...map[K]V) []V {
	var size int
	for _, m := range ms {
		size += len(m)
	}

	values := make([]V, 0, size)
	for _, m := range ms {
		values = append(values, maps.Values(m)...)
	}

	return values
}

// Shuffle randomizes the order of the slice in place.
func Shuffle[T any](s []T) {
	rand.Shuffle(len(s), func(i, j int) {
		s[i], s[j] = s[j], s[i]
	})
}
