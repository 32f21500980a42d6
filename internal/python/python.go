package python

import (
	"fmt"
	"strings"
)

// Interpreter identifies the interpreter family a distribution belongs to.
type Interpreter int

const (
	CPython Interpreter = iota
	PyPy
)

func (i Interpreter) String() string {
	switch i {
	case CPython:
		return "cpython"
	case PyPy:
		return "pypy"
	}
	return "unknown"
}

// Version identifies an interpreter build. A version without a bugfix
// component acts as a wildcard when used as a request (see Compatible).
type Version struct {
	Interpreter Interpreter
	Major       uint8
	Minor       uint8
	Bugfix      uint8
	HasBugfix   bool
}

// Compatible reports whether v, a release candidate, satisfies the requested
// version. The relation is asymmetric: a request without a bugfix matches any
// bugfix of the same interpreter/major/minor, but a request with a bugfix
// only matches the identical version.
func (v Version) Compatible(requested Version) bool {
	if v == requested {
		return true
	}
	return v.Interpreter == requested.Interpreter &&
		v.Major == requested.Major &&
		v.Minor == requested.Minor &&
		!requested.HasBugfix
}

func (v Version) String() string {
	prefix := ""
	if v.Interpreter == PyPy {
		prefix = "pypy"
	}
	if v.HasBugfix {
		return fmt.Sprintf("%s%d.%d.%d", prefix, v.Major, v.Minor, v.Bugfix)
	}
	return fmt.Sprintf("%s%d.%d", prefix, v.Major, v.Minor)
}

// Compare orders versions by (interpreter, major, minor, bugfix), with a
// missing bugfix sorting before any concrete bugfix of the same release line.
func Compare(a, b Version) int {
	if a.Interpreter != b.Interpreter {
		return int(a.Interpreter) - int(b.Interpreter)
	}
	if a.Major != b.Major {
		return int(a.Major) - int(b.Major)
	}
	if a.Minor != b.Minor {
		return int(a.Minor) - int(b.Minor)
	}
	if a.HasBugfix != b.HasBugfix {
		if a.HasBugfix {
			return 1
		}
		return -1
	}
	return int(a.Bugfix) - int(b.Bugfix)
}

// Release is one downloadable interpreter distribution offered by a
// provider. Releases are produced fresh per listing and never persisted.
type Release struct {
	Name        string // archive filename, used as the cache key
	URL         string
	Version     Version
	ReleaseTag  string // opaque upstream build identifier, shown when listing
	ChecksumURL string // optional .sha256 sidecar, empty when the upstream has none
}

// ParseUserInput parses a version request such as "3.11", "3.11.2" or
// "pypy3.9". Anything not matching the grammar exactly fails with
// InvalidVersionError.
func ParseUserInput(text string) (Version, error) {
	rest := text
	interpreter := CPython
	if strings.HasPrefix(rest, "pypy") {
		interpreter = PyPy
		rest = rest[len("pypy"):]
	}

	major, rest, ok := parseUint8(rest)
	if !ok {
		return Version{}, &InvalidVersionError{Input: text}
	}
	rest, ok = expect(rest, ".")
	if !ok {
		return Version{}, &InvalidVersionError{Input: text}
	}
	minor, rest, ok := parseUint8(rest)
	if !ok {
		return Version{}, &InvalidVersionError{Input: text}
	}

	v := Version{Interpreter: interpreter, Major: major, Minor: minor}
	if rest == "" {
		return v, nil
	}

	rest, ok = expect(rest, ".")
	if !ok {
		return Version{}, &InvalidVersionError{Input: text}
	}
	bugfix, rest, ok := parseUint8(rest)
	if !ok || rest != "" {
		return Version{}, &InvalidVersionError{Input: text}
	}
	v.Bugfix = bugfix
	v.HasBugfix = true
	return v, nil
}

// ParseCPythonAsset parses a python-build-standalone asset name such as
// "cpython-3.11.2+20230325-x86_64-unknown-linux-gnu-install_only.tar.gz",
// returning the release tag and the version. The bugfix component is always
// present in this naming scheme.
func ParseCPythonAsset(name string) (string, Version, error) {
	rest, ok := expect(name, "cpython-")
	if !ok {
		return "", Version{}, fmt.Errorf("parsing asset name %q: missing cpython- prefix", name)
	}
	major, rest, ok := parseUint8(rest)
	if !ok {
		return "", Version{}, fmt.Errorf("parsing asset name %q: bad major version", name)
	}
	rest, ok = expect(rest, ".")
	if !ok {
		return "", Version{}, fmt.Errorf("parsing asset name %q: bad version", name)
	}
	minor, rest, ok := parseUint8(rest)
	if !ok {
		return "", Version{}, fmt.Errorf("parsing asset name %q: bad minor version", name)
	}
	rest, ok = expect(rest, ".")
	if !ok {
		return "", Version{}, fmt.Errorf("parsing asset name %q: bad version", name)
	}
	bugfix, rest, ok := parseUint8(rest)
	if !ok {
		return "", Version{}, fmt.Errorf("parsing asset name %q: bad bugfix version", name)
	}
	rest, ok = expect(rest, "+")
	if !ok {
		return "", Version{}, fmt.Errorf("parsing asset name %q: missing release tag", name)
	}
	tag, _ := takeDigits(rest)
	if tag == "" {
		return "", Version{}, fmt.Errorf("parsing asset name %q: missing release tag", name)
	}

	v := Version{
		Interpreter: CPython,
		Major:       major,
		Minor:       minor,
		Bugfix:      bugfix,
		HasBugfix:   true,
	}
	return tag, v, nil
}

// ParsePyPyURL parses a PyPy download URL such as
// "https://downloads.python.org/pypy/pypy3.9-v7.3.11-linux64.tar.bz2",
// returning the archive filename, the release tag and the version. PyPy
// releases carry no bugfix component in this model. downloadURL is the known
// host prefix the URL must start with.
func ParsePyPyURL(url, downloadURL string) (string, string, Version, error) {
	name, ok := expect(url, downloadURL)
	if !ok {
		return "", "", Version{}, fmt.Errorf("parsing URL %q: unexpected host", url)
	}
	rest, ok := expect(name, "pypy")
	if !ok {
		return "", "", Version{}, fmt.Errorf("parsing URL %q: missing pypy prefix", url)
	}
	major, rest, ok := parseUint8(rest)
	if !ok {
		return "", "", Version{}, fmt.Errorf("parsing URL %q: bad major version", url)
	}
	rest, ok = expect(rest, ".")
	if !ok {
		return "", "", Version{}, fmt.Errorf("parsing URL %q: bad version", url)
	}
	minor, rest, ok := parseUint8(rest)
	if !ok {
		return "", "", Version{}, fmt.Errorf("parsing URL %q: bad minor version", url)
	}
	rest, ok = expect(rest, "-")
	if !ok {
		return "", "", Version{}, fmt.Errorf("parsing URL %q: missing release tag", url)
	}
	tag, _, found := strings.Cut(rest, "-")
	if !found {
		return "", "", Version{}, fmt.Errorf("parsing URL %q: missing release tag", url)
	}

	v := Version{Interpreter: PyPy, Major: major, Minor: minor}
	return name, tag, v, nil
}

func expect(input, literal string) (string, bool) {
	if !strings.HasPrefix(input, literal) {
		return input, false
	}
	return input[len(literal):], true
}

// parseUint8 consumes a leading run of digits and returns its value, failing
// on overflow or when no digit is present.
func parseUint8(input string) (uint8, string, bool) {
	digits, rest := takeDigits(input)
	if digits == "" {
		return 0, input, false
	}
	var n uint16
	for _, c := range digits {
		n = n*10 + uint16(c-'0')
		if n > 255 {
			return 0, input, false
		}
	}
	return uint8(n), rest, true
}

func takeDigits(input string) (string, string) {
	i := 0
	for i < len(input) && input[i] >= '0' && input[i] <= '9' {
		i++
	}
	return input[:i], input[i:]
}
