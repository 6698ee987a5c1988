package rds

import (
	"errors"
	"fmt"
)

var (
	ErrFlavorNotFound           = errors.New("flavor not found")
	ErrDatastoreVersionNotFound = errors.New("datastore version not found")
	ErrInstanceNotFound         = errors.New("instance not found")
)

// FlavorNotFoundError is returned when a size class has no provider flavor
// for the requested datastore.
type FlavorNotFoundError struct {
	Flavor    string
	Datastore Datastore
}

func (e *FlavorNotFoundError) Error() string {
	return fmt.Sprintf("%s: %q (spec code %s, datastore %s %s)",
		ErrFlavorNotFound, e.Flavor, SpecCode(e.Datastore.Type, e.Flavor), e.Datastore.Type, e.Datastore.Version)
}

func (e *FlavorNotFoundError) Is(target error) bool {
	return target == ErrFlavorNotFound
}
