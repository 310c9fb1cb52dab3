package toolchain

import (
	"fmt"
	"regexp"
	"strconv"
)

// Version is a major.minor.patch triple.
type Version [3]uint32

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2])
}

// AtLeast reports whether v meets or exceeds min.
func (v Version) AtLeast(min Version) bool {
	for i := 0; i < 3; i++ {
		if v[i] != min[i] {
			return v[i] > min[i]
		}
	}
	return true
}

var versionRe = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)

// ParseVersion extracts the first X.Y.Z triple from arbitrary tool
// output, e.g. "git version 2.43.0" or cmake's multi-line banner.
func ParseVersion(output string) (Version, bool) {
	m := versionRe.FindStringSubmatch(output)
	if m == nil {
		return Version{}, false
	}
	var v Version
	for i := 0; i < 3; i++ {
		n, err := strconv.ParseUint(m[i+1], 10, 32)
		if err != nil {
			return Version{}, false
		}
		v[i] = uint32(n)
	}
	return v, true
}
