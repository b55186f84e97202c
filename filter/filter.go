package filter

import (
	"github.com/s0up4200/odp-liege/liege"
)

// Garages returns the garages matching f, preserving order. A nil filter matches everything.
func Garages(f *Filter, garages []liege.Garage) ([]liege.Garage, error) {
	return apply(f, garages, f.MatchGarage)
}

// DisabledParkings returns the spots matching f, preserving order. A nil filter matches everything.
func DisabledParkings(f *Filter, spots []liege.DisabledParking) ([]liege.DisabledParking, error) {
	return apply(f, spots, f.MatchDisabledParking)
}

func apply[T any](f *Filter, records []T, match func(T) (bool, error)) ([]T, error) {
	if f == nil {
		return records, nil
	}

	matches := make([]T, 0, len(records))
	for _, record := range records {
		ok, err := match(record)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, record)
		}
	}
	return matches, nil
}
