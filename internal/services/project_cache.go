package services

import (
	"time"

	"momentum/internal/models"

	gocache "github.com/patrickmn/go-cache"
)

// projectCache keeps recently loaded project documents in memory so the
// per-request role check does not hit MongoDB on every call. Entries are
// short lived and invalidated on any project mutation.
type projectCache struct {
	store *gocache.Cache
}

func newProjectCache() *projectCache {
	return &projectCache{
		store: gocache.New(30*time.Second, 2*time.Minute),
	}
}

func (c *projectCache) Get(projectID string) (*models.Project, bool) {
	v, ok := c.store.Get(projectID)
	if !ok {
		return nil, false
	}
	project, ok := v.(*models.Project)
	return project, ok
}

func (c *projectCache) Set(project *models.Project) {
	c.store.Set(project.ID.Hex(), project, gocache.DefaultExpiration)
}

func (c *projectCache) Invalidate(projectID string) {
	c.store.Delete(projectID)
}
