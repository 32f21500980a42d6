// Package resolver selects a release from a provider catalog for a
// requested version.
package resolver

import (
	"sort"

	"github.com/frederic-klein/lilyenv/internal/python"
)

// Resolve returns the newest release in catalog compatible with the
// requested version. Candidates are ordered by version descending before
// selection, so a request without a bugfix resolves to the highest bugfix of
// its release line. An exact request only matches the identical version.
func Resolve(requested python.Version, catalog []python.Release) (python.Release, error) {
	sorted := make([]python.Release, len(catalog))
	copy(sorted, catalog)
	sort.SliceStable(sorted, func(i, j int) bool {
		return python.Compare(sorted[i].Version, sorted[j].Version) > 0
	})

	for _, release := range sorted {
		if release.Version.Compatible(requested) {
			return release, nil
		}
	}
	return python.Release{}, &python.VersionNotFoundError{Requested: requested.String()}
}
