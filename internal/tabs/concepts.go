// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package tabs

import (
	"strings"

	gocache "github.com/patrickmn/go-cache"
)

// ConceptCache maps terms to short preload summaries, shown in a deep-dive
// tab while its session is still idle or streaming. Entries are keyed
// case-insensitively and never invalidated; the cache is append-only from
// the registry's perspective.
type ConceptCache struct {
	cache *gocache.Cache
}

// seedConcepts is the static preload set shipped with learntab.
var seedConcepts = map[string]string{
	"entropy":        "A measure of disorder; systems tend toward higher entropy over time.",
	"photosynthesis": "The process plants use to convert light into chemical energy.",
	"mitosis":        "Cell division producing two identical daughter cells.",
	"osmosis":        "Movement of water across a membrane toward higher solute concentration.",
	"gravity":        "The attraction between masses; curves spacetime in general relativity.",
	"recursion":      "A definition or procedure expressed in terms of itself.",
}

// NewConceptCache creates a cache preloaded with the seed set.
func NewConceptCache() *ConceptCache {
	c := &ConceptCache{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
	for term, summary := range seedConcepts {
		c.Put(term, summary)
	}
	return c
}

// Preload returns the stored summary for term, or "".
func (c *ConceptCache) Preload(term string) string {
	if v, ok := c.cache.Get(conceptKey(term)); ok {
		return v.(string)
	}
	return ""
}

// Put stores a summary for term. Existing entries are left alone so a
// session's refined summary never replaces what an open tab already shows.
func (c *ConceptCache) Put(term, summary string) {
	if term == "" || summary == "" {
		return
	}
	c.cache.Add(conceptKey(term), summary, gocache.NoExpiration)
}

// Size returns the number of cached concepts.
func (c *ConceptCache) Size() int {
	return c.cache.ItemCount()
}

func conceptKey(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
