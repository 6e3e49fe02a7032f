package ports

import (
	"context"
	"errors"

	"github.com/RamonASM/aerialshots-portal-sub015/internal/domain"
)

// Returned by Geocoder implementations when an address yields no result.
var ErrAddressNotFound = errors.New("address not found")

// Contract for resolving a free-text address to coordinates.
type Geocoder interface {
	// Resolve returns the coordinates for an address, or ErrAddressNotFound.
	Resolve(ctx context.Context, address string) (domain.Coordinates, error)
}
