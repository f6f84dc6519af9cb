package view

import (
	"maps"
	"slices"

	"github.com/zeusync/viewsync/internal/core/models"
)

// dependencyIndex stores the edges derived from entity reference options.
// forward counts references per (source, target) because two options, or
// two list elements, may point at the same target.
type dependencyIndex struct {
	forward map[models.Key]map[models.Key]int
	reverse map[models.Key]map[models.Key]struct{}
}

func newDependencyIndex() *dependencyIndex {
	return &dependencyIndex{
		forward: make(map[models.Key]map[models.Key]int),
		reverse: make(map[models.Key]map[models.Key]struct{}),
	}
}

// add records one reference and reports whether the edge is new.
func (d *dependencyIndex) add(source, target models.Key) bool {
	targets := d.forward[source]
	if targets == nil {
		targets = make(map[models.Key]int)
		d.forward[source] = targets
	}
	targets[target]++
	if targets[target] > 1 {
		return false
	}

	sources := d.reverse[target]
	if sources == nil {
		sources = make(map[models.Key]struct{})
		d.reverse[target] = sources
	}
	sources[source] = struct{}{}
	return true
}

// remove drops one reference and reports whether the edge disappeared.
func (d *dependencyIndex) remove(source, target models.Key) bool {
	targets := d.forward[source]
	if targets[target] == 0 {
		return false
	}
	targets[target]--
	if targets[target] > 0 {
		return false
	}
	delete(targets, target)
	if len(targets) == 0 {
		delete(d.forward, source)
	}

	sources := d.reverse[target]
	delete(sources, source)
	if len(sources) == 0 {
		delete(d.reverse, target)
	}
	return true
}

// removeSource drops every edge of a source and returns the targets.
func (d *dependencyIndex) removeSource(source models.Key) []models.Key {
	targets := models.SortKeys(slices.Collect(maps.Keys(d.forward[source])))
	for _, target := range targets {
		sources := d.reverse[target]
		delete(sources, source)
		if len(sources) == 0 {
			delete(d.reverse, target)
		}
	}
	delete(d.forward, source)
	return targets
}

func (d *dependencyIndex) sources(target models.Key) []models.Key {
	return models.SortKeys(slices.Collect(maps.Keys(d.reverse[target])))
}

func (d *dependencyIndex) targets(source models.Key) []models.Key {
	return models.SortKeys(slices.Collect(maps.Keys(d.forward[source])))
}

func (d *dependencyIndex) keys() []models.Key {
	return models.SortKeys(slices.Collect(maps.Keys(d.reverse)))
}

func (d *dependencyIndex) hasDependents(target models.Key) bool {
	return len(d.reverse[target]) > 0
}
