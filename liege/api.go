package liege

import (
	"context"
)

// API defines the interface for Open Data Platform operations
type API interface {
	// Garages retrieves up to limit parking garages
	Garages(ctx context.Context, limit int) ([]Garage, error)

	// DisabledParkings retrieves up to limit disabled parking spots
	DisabledParkings(ctx context.Context, limit int) ([]DisabledParking, error)

	// Close releases the client's own resources
	Close() error
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)
