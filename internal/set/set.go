package set

import "golang.org/x/exp/maps"

type Set[T comparable] map[T]struct{}

func New[T comparable](values ...T) Set[T] {
	s := make(Set[T], len(values))
	for _, val := range values {
		s.Add(val)
	}

	return s
}

func (s Set[T]) Add(val T) {
	s[val] = struct{}{}
}

func (s Set[T]) Remove(val T) {
	delete(s, val)
}

func (s Set[T]) Has(val T) bool {
	_, ok := s[val]
	return ok
}

// Values returns the elements in unspecified order.
func (s Set[T]) Values() []T {
	return maps.Keys(s)
}

// Union returns a new set with the elements of both sets.
func (s Set[T]) Union(ss Set[T]) Set[T] {
	result := make(Set[T], len(s)+len(ss))
	maps.Copy(result, s)
	maps.Copy(result, ss)

	return result
}

// Intersect returns a new set with the elements present in both sets.
func (s Set[T]) Intersect(ss Set[T]) Set[T] {
	result := make(Set[T])

	for val := range s {
		if ss.Has(val) {
			result.Add(val)
		}
	}

	return result
}

// Difference returns a new set with the elements of s that are not in ss.
func (s Set[T]) Difference(ss Set[T]) Set[T] {
	result := make(Set[T])

	for val := range s {
		if !ss.Has(val) {
			result.Add(val)
		}
	}

	return result
}

func (s Set[T]) Equals(ss Set[T]) bool {
	if len(s) != len(ss) {
		return false
	}

	for val := range s {
		if !ss.Has(val) {
			return false
		}
	}

	return true
}
