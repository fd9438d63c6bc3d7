package domain

import (
	"fmt"
	"time"
)

type EngineState string

const (
	EngineStateUnloaded   EngineState = "unloaded"
	EngineStateLoading    EngineState = "loading"
	EngineStateReady      EngineState = "ready"
	EngineStateLoadFailed EngineState = "load_failed"
)

// Next validates the edge s -> to. The engine never returns to unloaded,
// and load_failed only leaves through a retry into loading.
func (s EngineState) Next(to EngineState) (EngineState, error) {
	switch {
	case s == EngineStateUnloaded && to == EngineStateLoading,
		s == EngineStateLoading && to == EngineStateReady,
		s == EngineStateLoading && to == EngineStateLoadFailed,
		s == EngineStateLoadFailed && to == EngineStateLoading:
		return to, nil
	}
	return s, fmt.Errorf("%w: engine %s -> %s", ErrInvalidTransition, s, to)
}

// ArtifactKind names one of the two files an engine needs before init.
type ArtifactKind string

const (
	ArtifactRuntime ArtifactKind = "runtime"
	ArtifactPayload ArtifactKind = "payload"
)

// Artifacts holds local paths of the fetched engine artifacts.
type Artifacts struct {
	RuntimeModule string
	BinaryPayload string
}

// EngineStatus is a point-in-time view of the engine lifecycle.
type EngineStatus struct {
	State EngineState `json:"state"`
	Error string      `json:"error,omitempty"`
}

// ArtifactRecord describes a cached copy of a fetched engine artifact.
type ArtifactRecord struct {
	Kind      ArtifactKind `json:"kind"`
	SourceURL string       `json:"source_url"`
	Path      string       `json:"path"`
	Digest    string       `json:"digest"`
	Size      int64        `json:"size"`
	FetchedAt time.Time    `json:"fetched_at"`
}
