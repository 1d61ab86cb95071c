// Package profiles holds the catalog of named volume geometries that the
// format command accepts. The catalog is an embedded CSV file so that adding
// a profile is a data change, not a code change.
package profiles

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/gocarina/gocsv"

	"minifs"
	"minifs/volume"
)

//go:embed profiles.csv
var profilesCsv string

// Profile is one row of the catalog.
type Profile struct {
	Name        string `csv:"name"`
	Slug        string `csv:"slug"`
	BlockSize   uint32 `csv:"block_size"`
	TotalBlocks uint32 `csv:"total_blocks"`
	MaxInodes   uint32 `csv:"max_inodes"`
	Notes       string `csv:"notes"`
}

// Geometry converts the profile into a volume geometry.
func (p Profile) Geometry() volume.Geometry {
	return volume.Geometry{
		BlockSize:   p.BlockSize,
		TotalBlocks: p.TotalBlocks,
		MaxInodes:   p.MaxInodes,
	}
}

var (
	loadOnce sync.Once
	profiles []Profile
	loadErr  error
)

// All returns every profile in the catalog, in file order.
func All() ([]Profile, error) {
	loadOnce.Do(func() {
		loadErr = gocsv.UnmarshalString(profilesCsv, &profiles)
	})
	if loadErr != nil {
		return nil, minifs.ErrInvalidArgument.Wrap(loadErr)
	}
	return profiles, nil
}

// Get returns the profile with the given slug.
func Get(slug string) (Profile, error) {
	all, err := All()
	if err != nil {
		return Profile{}, err
	}
	for _, p := range all {
		if p.Slug == slug {
			return p, nil
		}
	}
	return Profile{}, minifs.ErrNotFound.WithMessage(
		fmt.Sprintf("no volume profile named %q", slug))
}
