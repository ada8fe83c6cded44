package graph

import (
	"strings"

	"github.com/site2data/graph-worker/internal/domain"
	"github.com/site2data/graph-worker/internal/logger"
)

// BuildRelationshipGraph converts analyzed scenes into a weighted undirected
// co-occurrence graph. Malformed scenes are skipped with a warning, never
// fatal; the caller decides what a fully empty result means.
func BuildRelationshipGraph(scenes []domain.Scene, log *logger.Logger) *Graph {
	g := New()

	for _, scene := range scenes {
		if scene.AnalysisResult == nil {
			log.Warn("missing analysis result for scene", "scene_id", scene.SceneID)
			continue
		}
		if len(scene.AnalysisResult.Characters) == 0 {
			log.Debug("no characters in scene analysis", "scene_id", scene.SceneID)
			continue
		}

		characters := normalizeCharacters(scene, log)
		for _, name := range characters {
			g.AddAppearance(name)
		}
		for i := 0; i < len(characters); i++ {
			for j := i + 1; j < len(characters); j++ {
				g.IncrementEdge(characters[i], characters[j])
			}
		}
	}

	log.Info("built relationship graph", "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return g
}

// normalizeCharacters trims names, drops blanks, and deduplicates while
// preserving first-seen order. Deduplication keeps a repeated name from
// self-pairing or counting twice within one scene.
func normalizeCharacters(scene domain.Scene, log *logger.Logger) []string {
	seen := make(map[string]struct{}, len(scene.AnalysisResult.Characters))
	valid := make([]string, 0, len(scene.AnalysisResult.Characters))
	for _, raw := range scene.AnalysisResult.Characters {
		name := strings.TrimSpace(raw)
		if name == "" {
			log.Warn("blank character name in scene analysis", "scene_id", scene.SceneID)
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		valid = append(valid, name)
	}
	return valid
}
