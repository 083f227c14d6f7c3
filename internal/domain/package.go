package domain

import (
	"fmt"
	"strings"
)

// Default pickup location used when a package is created without a start.
const DefaultPackageStart = "Karlsruhe Hauptbahnhof"

type PackageSize int

const (
	PackageSmall PackageSize = iota
	PackageLarge
)

func (s PackageSize) String() string {
	switch s {
	case PackageSmall:
		return "SMALL"
	case PackageLarge:
		return "LARGE"
	default:
		return fmt.Sprintf("PackageSize(%d)", int(s))
	}
}

// ParsePackageSize accepts "small"/"large" in any case.
func ParsePackageSize(s string) (PackageSize, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SMALL":
		return PackageSmall, nil
	case "LARGE":
		return PackageLarge, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidPackageSize, s)
	}
}

// Represents a single delivery unit carried by a robot.
// Start and Destination are free text; they are not geocoded when loaded.
type Package struct {
	Size        PackageSize
	Start       string
	Destination string
}

// NewPackage builds a package, falling back to DefaultPackageStart for an empty start.
func NewPackage(size PackageSize, start, destination string) (Package, error) {
	if size != PackageSmall && size != PackageLarge {
		return Package{}, fmt.Errorf("%w: %d", ErrInvalidPackageSize, int(size))
	}

	start = strings.TrimSpace(start)
	if start == "" {
		start = DefaultPackageStart
	}

	return Package{Size: size, Start: start, Destination: strings.TrimSpace(destination)}, nil
}
