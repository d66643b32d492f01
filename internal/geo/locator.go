package geo

import (
	"context"
	"errors"
)

// StaticLocator replays a fix that was captured elsewhere, typically by
// the device before the request reached the server.
type StaticLocator struct {
	Fix Fix
}

func (s StaticLocator) Locate(ctx context.Context) (Fix, error) {
	return s.Fix, nil
}

// UnavailableLocator models a platform without a location facility; every
// lookup degrades to the unknown sentinel.
type UnavailableLocator struct{}

func (UnavailableLocator) Locate(ctx context.Context) (Fix, error) {
	return Fix{}, errors.New("geolocation not supported")
}
