package assets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/keneslab/sitegen/internal/foundation/errors"
)

// Kind selects which semver component Increment bumps.
type Kind string

const (
	KindMajor Kind = "major"
	KindMinor Kind = "minor"
	KindPatch Kind = "patch"
)

// Increment bumps version by kind. Bumping major resets minor and patch;
// bumping minor resets patch. An empty kind means patch.
func Increment(version string, kind Kind) (string, error) {
	parts := strings.Split(strings.TrimSpace(version), ".")
	if len(parts) != 3 {
		return "", invalidVersion(version)
	}
	var n [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return "", invalidVersion(version)
		}
		n[i] = v
	}

	switch kind {
	case KindMajor:
		n = [3]int{n[0] + 1, 0, 0}
	case KindMinor:
		n = [3]int{n[0], n[1] + 1, 0}
	case KindPatch, "":
		n[2]++
	default:
		return "", errors.ValidationError(fmt.Sprintf("unknown version kind %q", kind)).Build()
	}
	return fmt.Sprintf("%d.%d.%d", n[0], n[1], n[2]), nil
}

func invalidVersion(version string) error {
	return errors.ValidationError(fmt.Sprintf("version %q is not MAJOR.MINOR.PATCH", version)).
		WithContext("version", version).
		Build()
}
