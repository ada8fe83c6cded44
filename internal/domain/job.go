package domain

import (
	"errors"
	"time"
)

type JobStatus string

const (
	JobStatusReceived        JobStatus = "RECEIVED"
	JobStatusGeneratingGraph JobStatus = "GENERATING_GRAPH"
	JobStatusCompleted       JobStatus = "COMPLETED"
	JobStatusFailed          JobStatus = "FAILED"
)

// Terminal reports whether no further processing attempt may change the status.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// SceneStatusIndexed marks a scene whose analysis has been persisted and is
// eligible for graph generation.
const SceneStatusIndexed = "INDEXED"

// ErrNoAnalyzedScenes signals that a job has nothing to build a graph from.
// It is an expected domain condition, not an infrastructure fault.
var ErrNoAnalyzedScenes = errors.New(`no scenes with status "INDEXED" found for graph generation`)

// Job is the persisted record of one graph generation request. Created by the
// upstream producer; this worker only advances its status.
type Job struct {
	JobID          string    `bson:"jobId"`
	Status         JobStatus `bson:"status"`
	UpdatedAt      time.Time `bson:"updatedAt"`
	ErrorMessage   string    `bson:"errorMessage,omitempty"`
	FinalResultURL string    `bson:"finalResultUrl,omitempty"`
}

// Scene is one analyzed unit of narrative content. Written entirely by the
// upstream analysis workers; read-only here.
type Scene struct {
	JobID          string         `bson:"jobId"`
	SceneID        string         `bson:"sceneId"`
	Status         string         `bson:"status"`
	AnalysisResult *SceneAnalysis `bson:"analysisResult,omitempty"`
}

// SceneAnalysis carries the extracted fields this worker consumes. The
// character list may contain blanks or duplicates and is normalized at the
// graph builder boundary.
type SceneAnalysis struct {
	Characters []string `bson:"characters,omitempty"`
}

// ProgressEvent is the transient payload published to per-job progress
// channels. Best-effort; never persisted.
type ProgressEvent struct {
	JobID          string    `json:"jobId"`
	Status         JobStatus `json:"status"`
	Progress       int       `json:"progress"`
	Message        string    `json:"message"`
	FinalResultURL string    `json:"finalResultUrl,omitempty"`
}
