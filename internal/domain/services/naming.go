package services

import (
	"path/filepath"
	"sort"

	"github.com/ochairo/specfetch/internal/domain/entities"
)

// DestinationPath returns where a spec is written inside destDir
func DestinationPath(destDir string, spec *entities.SpecMetadata) string {
	return filepath.Join(destDir, spec.FileName())
}

// Collision lists specs that map to the same local file name
type Collision struct {
	FileName string
	Sources  []string // owner/repo/path of each colliding spec, in download order
}

// FindCollisions groups specs sharing a destination file name.
// Only names with more than one spec are returned, sorted by file name.
func FindCollisions(specs []*entities.SpecMetadata) []Collision {
	byName := make(map[string][]string)
	for _, spec := range specs {
		name := spec.FileName()
		byName[name] = append(byName[name], spec.Owner+"/"+spec.Repo+"/"+spec.Path)
	}

	var collisions []Collision
	for name, sources := range byName {
		if len(sources) > 1 {
			collisions = append(collisions, Collision{FileName: name, Sources: sources})
		}
	}

	sort.Slice(collisions, func(i, j int) bool {
		return collisions[i].FileName < collisions[j].FileName
	})
	return collisions
}
