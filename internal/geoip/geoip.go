// Package geoip resolves client IP addresses to coordinates for the
// geolocation risk calculator.
package geoip

import (
	"context"
	"net"

	"trustd/internal/engine/ports"
	dErrors "trustd/pkg/domain-errors"
)

// StaticResolver maps every valid IP to a fixed coordinate. It stands in for
// a real geo database in development and tests; the engine only needs the
// Locator contract, so swapping in a provider-backed resolver is a wiring
// change in main.
type StaticResolver struct {
	location ports.Location
}

// NewStatic returns a resolver that answers with the given coordinate.
func NewStatic(lat, lon float64) *StaticResolver {
	return &StaticResolver{location: ports.Location{Lat: lat, Lon: lon}}
}

// Resolve validates the address and returns the configured coordinate.
func (r *StaticResolver) Resolve(_ context.Context, ipAddress string) (ports.Location, error) {
	if net.ParseIP(ipAddress) == nil {
		return ports.Location{}, dErrors.New(dErrors.CodeInvalidInput, "invalid ip address")
	}
	return r.location, nil
}
