package ports

import "robot-route-service/internal/domain"

// Read-only tram line metadata.
type LineCatalog interface {
	Lines() []domain.TramLine
	// Lookup matches by line number first, then by id.
	Lookup(number string, id string) (domain.TramLine, bool)
}
