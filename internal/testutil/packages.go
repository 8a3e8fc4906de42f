package testutil

import (
	"context"
	"errors"
)

// ErrNoPackage is returned by Packages for names it does not hold.
var ErrNoPackage = errors.New("testutil: package not found")

// Packages serves scene-data packages from a map. It implements
// engine.PackageSource.
type Packages map[string][]byte

func (p Packages) Package(_ context.Context, name string) ([]byte, error) {
	data, ok := p[name]
	if !ok {
		return nil, ErrNoPackage
	}
	return data, nil
}
