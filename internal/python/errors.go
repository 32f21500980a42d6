package python

import "fmt"

// InvalidVersionError reports a user-supplied version string that does not
// match the version grammar.
type InvalidVersionError struct {
	Input string
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("%s is not a valid Python version", e.Input)
}

// VersionNotFoundError reports that no release in a provider's catalog is
// compatible with the requested version.
type VersionNotFoundError struct {
	Requested string
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("could not find %s to download", e.Requested)
}
