package repositories

import (
	"fmt"
	"os"
	"robot-route-service/internal/domain"

	"gopkg.in/yaml.v2"
)

// RobotSeed describes one robot to create at startup.
// Missing fields keep the robot defaults.
type RobotSeed struct {
	Parked     *bool         `yaml:"parked"`
	DoorOpened bool          `yaml:"door_opened"`
	Reversing  bool          `yaml:"reversing"`
	Charging   bool          `yaml:"charging"`
	Battery    *float64      `yaml:"battery"`
	LED        []int         `yaml:"led"`
	Packages   []PackageSeed `yaml:"packages"`
}

type PackageSeed struct {
	Size        string `yaml:"size"`
	Start       string `yaml:"start"`
	Destination string `yaml:"destination"`
}

type fleetFile struct {
	Robots []RobotSeed `yaml:"robots"`
}

// Load the fleet seed file (YAML or JSON with a top-level "robots" list).
func LoadFleetSeed(path string) ([]RobotSeed, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load fleet seed: read %q: %w", path, err)
	}

	var f fleetFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("load fleet seed: parse %q: %w", path, err)
	}
	return f.Robots, nil
}

// Options validates the seed and converts it to robot options.
func (s RobotSeed) Options() (domain.RobotOptions, error) {
	opts := domain.DefaultRobotOptions()
	if s.Parked != nil {
		opts.Parked = *s.Parked
	}
	opts.DoorOpened = s.DoorOpened
	opts.Reversing = s.Reversing
	opts.Charging = s.Charging

	if s.Battery != nil {
		if err := domain.ValidateBattery(*s.Battery); err != nil {
			return domain.RobotOptions{}, err
		}
		opts.Battery = *s.Battery
	}

	if s.LED != nil {
		if len(s.LED) != 3 {
			return domain.RobotOptions{}, fmt.Errorf("%w: want 3 channels, got %d", domain.ErrInvalidLED, len(s.LED))
		}
		led, err := domain.NewLED(s.LED[0], s.LED[1], s.LED[2])
		if err != nil {
			return domain.RobotOptions{}, err
		}
		opts.LED = led
	}
	return opts, nil
}

func (p PackageSeed) Package() (domain.Package, error) {
	size, err := domain.ParsePackageSize(p.Size)
	if err != nil {
		return domain.Package{}, err
	}
	return domain.NewPackage(size, p.Start, p.Destination)
}

// PackageList converts every package entry, stopping at the first invalid one.
func (s RobotSeed) PackageList() ([]domain.Package, error) {
	out := make([]domain.Package, 0, len(s.Packages))
	for i, p := range s.Packages {
		pkg, err := p.Package()
		if err != nil {
			return nil, fmt.Errorf("package %d: %w", i, err)
		}
		out = append(out, pkg)
	}
	return out, nil
}
