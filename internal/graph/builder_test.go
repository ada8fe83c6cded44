package graph

import (
	"testing"

	"github.com/site2data/graph-worker/internal/domain"
	"github.com/site2data/graph-worker/internal/logger"
)

func sceneWith(sceneID string, characters ...string) domain.Scene {
	return domain.Scene{
		JobID:          "job-1",
		SceneID:        sceneID,
		Status:         domain.SceneStatusIndexed,
		AnalysisResult: &domain.SceneAnalysis{Characters: characters},
	}
}

func findEdge(t *testing.T, g *Graph, a, b string) Edge {
	t.Helper()
	for _, edge := range g.Edges() {
		if (edge.Source == a && edge.Target == b) || (edge.Source == b && edge.Target == a) {
			return edge
		}
	}
	t.Fatalf("edge %s-%s not found", a, b)
	return Edge{}
}

func TestBuildEmptyWhenNoUsableScenes(t *testing.T) {
	scenes := []domain.Scene{
		{SceneID: "s1"},
		{SceneID: "s2", AnalysisResult: &domain.SceneAnalysis{}},
		sceneWith("s3", "   ", ""),
	}

	g := BuildRelationshipGraph(scenes, logger.NewNop())

	if g.NodeCount() != 0 {
		t.Fatalf("expected 0 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 0 {
		t.Fatalf("expected 0 edges, got %d", g.EdgeCount())
	}
}

func TestBuildAccumulatesEdgeWeightAcrossScenes(t *testing.T) {
	scenes := []domain.Scene{
		sceneWith("s1", "Alice", "Bob"),
		sceneWith("s2", "Bob", "Alice"),
	}

	g := BuildRelationshipGraph(scenes, logger.NewNop())

	if g.NodeCount() != 2 {
		t.Fatalf("expected 2 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("expected 1 edge, got %d", g.EdgeCount())
	}
	if edge := findEdge(t, g, "Alice", "Bob"); edge.Weight != 2 {
		t.Fatalf("expected edge weight 2, got %d", edge.Weight)
	}
}

func TestBuildThreeCharactersOneScene(t *testing.T) {
	g := BuildRelationshipGraph([]domain.Scene{sceneWith("s1", "Alice", "Bob", "Carol")}, logger.NewNop())

	if g.NodeCount() != 3 {
		t.Fatalf("expected 3 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 3 {
		t.Fatalf("expected 3 edges, got %d", g.EdgeCount())
	}
	for _, pair := range [][2]string{{"Alice", "Bob"}, {"Alice", "Carol"}, {"Bob", "Carol"}} {
		if edge := findEdge(t, g, pair[0], pair[1]); edge.Weight != 1 {
			t.Fatalf("expected weight 1 for %s-%s, got %d", pair[0], pair[1], edge.Weight)
		}
	}
}

func TestBuildDuplicateNameDoesNotSelfPair(t *testing.T) {
	g := BuildRelationshipGraph([]domain.Scene{sceneWith("s1", "Alice", "Alice", "Bob")}, logger.NewNop())

	if g.NodeCount() != 2 {
		t.Fatalf("expected 2 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 1 {
		t.Fatalf("expected 1 edge, got %d", g.EdgeCount())
	}
	for _, edge := range g.Edges() {
		if edge.Source == edge.Target {
			t.Fatalf("unexpected self-loop on %s", edge.Source)
		}
	}
	if edge := findEdge(t, g, "Alice", "Bob"); edge.Weight != 1 {
		t.Fatalf("duplicate name inflated edge weight: got %d", edge.Weight)
	}
}

func TestBuildNormalizesAndCountsAppearances(t *testing.T) {
	scenes := []domain.Scene{
		sceneWith("s1", "  Alice ", "Bob"),
		sceneWith("s2", "Alice", "", "  "),
		sceneWith("s3", "Alice", "Alice"),
	}

	g := BuildRelationshipGraph(scenes, logger.NewNop())

	if g.NodeCount() != 2 {
		t.Fatalf("expected 2 nodes, got %d", g.NodeCount())
	}
	sizes := map[string]int{}
	for _, node := range g.Nodes() {
		sizes[node.ID] = node.Size
	}
	if sizes["Alice"] != 3 {
		t.Fatalf("expected Alice size 3 (once per scene), got %d", sizes["Alice"])
	}
	if sizes["Bob"] != 1 {
		t.Fatalf("expected Bob size 1, got %d", sizes["Bob"])
	}
}

func TestBuildSkipsMalformedScenesWithoutFailing(t *testing.T) {
	scenes := []domain.Scene{
		{SceneID: "broken"},
		sceneWith("s1", "Alice", "Bob"),
	}

	g := BuildRelationshipGraph(scenes, logger.NewNop())

	if g.NodeCount() != 2 || g.EdgeCount() != 1 {
		t.Fatalf("expected 2 nodes / 1 edge, got %d / %d", g.NodeCount(), g.EdgeCount())
	}
}
