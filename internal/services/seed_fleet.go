package services

import (
	"fmt"
	"robot-route-service/internal/domain"
)

type RobotCreator interface {
	CreateRobot(opts domain.RobotOptions) (*domain.Robot, error)
}

// SeedSource is one robot entry of a fleet seed file.
type SeedSource interface {
	Options() (domain.RobotOptions, error)
	PackageList() ([]domain.Package, error)
}

// SeedFleet creates one robot per seed and loads its packages.
// Every seed is validated before the first robot is created.
func SeedFleet[S SeedSource](creator RobotCreator, seeds []S) (int, error) {
	opts := make([]domain.RobotOptions, len(seeds))
	pkgs := make([][]domain.Package, len(seeds))
	for i, s := range seeds {
		o, err := s.Options()
		if err != nil {
			return 0, fmt.Errorf("seed fleet: robot %d: %w", i, err)
		}
		p, err := s.PackageList()
		if err != nil {
			return 0, fmt.Errorf("seed fleet: robot %d: %w", i, err)
		}
		opts[i], pkgs[i] = o, p
	}

	for i := range seeds {
		r, err := creator.CreateRobot(opts[i])
		if err != nil {
			return i, fmt.Errorf("seed fleet: %w", err)
		}
		for _, p := range pkgs[i] {
			if err := r.AddPackage(p); err != nil {
				return i + 1, fmt.Errorf("seed fleet: robot %d: %w", r.ID(), err)
			}
		}
	}
	return len(seeds), nil
}
