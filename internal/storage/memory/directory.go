package memory

import (
	"context"
	"sync"

	"zepul/pipeline-service/internal/auth"
)

// Directory is an in-memory actor directory implementing auth.Directory and
// assignment.Directory.
type Directory struct {
	mu     sync.Mutex
	actors map[string]auth.Actor
}

// NewDirectory returns an empty Directory.
func NewDirectory() *Directory {
	return &Directory{actors: make(map[string]auth.Actor)}
}

// AddActor seeds an actor.
func (d *Directory) AddActor(a auth.Actor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actors[a.ID] = a
}

// GetActor returns the actor or auth.ErrActorNotFound.
func (d *Directory) GetActor(ctx context.Context, id string) (auth.Actor, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, ok := d.actors[id]
	if !ok {
		return auth.Actor{}, auth.ErrActorNotFound
	}
	return a, nil
}

// RecruitersOf returns the ids of recruiters reporting to managerID.
func (d *Directory) RecruitersOf(ctx context.Context, managerID string) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out []string
	for _, a := range d.actors {
		if a.Role == auth.RoleRecruiter && a.ManagerID == managerID {
			out = append(out, a.ID)
		}
	}
	return out, nil
}
