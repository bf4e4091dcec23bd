package version

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is stamped at build time:
//
//	go build -ldflags "-X imagepub/internal/version.Version=v1.2.3"
var Version = ""

// ErrTooOld is returned when a tool version does not satisfy a minimum.
var ErrTooOld = errors.New("version too old")

// Current returns the imagepub version, falling back to module build info.
func Current() string {
	if v := strings.TrimSpace(Version); v != "" {
		return v
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// Parse parses a version as printed by tools ("24.0.7", "v1.2.3",
// "27.3.1-rc.1"). Surrounding whitespace and a leading "v" are ignored.
func Parse(raw string) (*semver.Version, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, errors.New("empty version")
	}
	v, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q: %w", raw, err)
	}
	return v, nil
}

// Require checks that actual >= minimum. An empty minimum always passes.
func Require(actual, minimum string) error {
	if strings.TrimSpace(minimum) == "" {
		return nil
	}
	min, err := Parse(minimum)
	if err != nil {
		return fmt.Errorf("minimum: %w", err)
	}
	got, err := Parse(actual)
	if err != nil {
		return err
	}
	// Compare the release only; pre-release builds of the minimum count.
	core, _ := got.SetPrerelease("")
	if core.LessThan(min) {
		return fmt.Errorf("%w: have %s, need >= %s", ErrTooOld, got, min)
	}
	return nil
}
