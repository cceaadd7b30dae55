package controller

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	queueport "go-pulse/internal/infrastructure/queue/port"
	pulse "go-pulse/internal/pkg/pulse/domain"
	repository "go-pulse/internal/pkg/pulse/persistence/repository/port"
)

// stubArtifactRepo is the in-memory repository the HTTP tests run against.
type stubArtifactRepo struct {
	mu        sync.Mutex
	artifacts map[string]*pulse.Artifact
	flags     map[string]map[string]bool
	nextID    int
}

func newStubArtifactRepo() *stubArtifactRepo {
	return &stubArtifactRepo{
		artifacts: make(map[string]*pulse.Artifact),
		flags:     make(map[string]map[string]bool),
	}
}

var _ repository.ArtifactRepository = (*stubArtifactRepo)(nil)

func (r *stubArtifactRepo) seed(a pulse.Artifact) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := fmt.Sprintf("11111111-1111-1111-1111-%012d", r.nextID)
	stored := a
	stored.ID = id
	r.artifacts[id] = &stored
	return id
}

func (r *stubArtifactRepo) CreateArtifact(ctx context.Context, a pulse.Artifact) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, existing := range r.artifacts {
		if existing.OwnerID == a.OwnerID && existing.Type == a.Type {
			count++
		}
	}
	if count >= a.Type.DailyCap() {
		return "", pulse.ErrDailyCapExceeded
	}
	r.nextID++
	id := fmt.Sprintf("11111111-1111-1111-1111-%012d", r.nextID)
	stored := a
	stored.ID = id
	r.artifacts[id] = &stored
	return id, nil
}

func (r *stubArtifactRepo) GetArtifact(ctx context.Context, id string) (*pulse.Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.artifacts[id]
	if !ok {
		return nil, pulse.ErrArtifactNotFound
	}
	out := *a
	return &out, nil
}

func (r *stubArtifactRepo) QueryActive(ctx context.Context, q repository.ArtifactQuery) ([]pulse.Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []pulse.Artifact
	for _, a := range r.artifacts {
		if !a.Visible(q.Now) || !q.Box.Contains(a.Lat, a.Lng) {
			continue
		}
		if q.Type != nil && a.Type != *q.Type {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *stubArtifactRepo) RecordFlag(ctx context.Context, artifactID, reporterID string, threshold int) (repository.FlagOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.artifacts[artifactID]
	if !ok {
		return repository.FlagOutcome{}, pulse.ErrArtifactNotFound
	}
	reporters := r.flags[artifactID]
	if reporters == nil {
		reporters = make(map[string]bool)
		r.flags[artifactID] = reporters
	}
	counted := !reporters[reporterID]
	if counted {
		reporters[reporterID] = true
		a.FlagCount++
		if a.ModerationStatus == pulse.StatusClean && a.FlagCount >= threshold {
			a.ModerationStatus = pulse.StatusFlagged
		}
	}
	return repository.FlagOutcome{
		FlagCount: a.FlagCount,
		Status:    a.ModerationStatus,
		Counted:   counted,
		Escalated: counted && a.ModerationStatus == pulse.StatusFlagged && a.FlagCount == threshold,
	}, nil
}

func (r *stubArtifactRepo) MarkRemoved(ctx context.Context, artifactID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.artifacts[artifactID]
	if !ok {
		return pulse.ErrArtifactNotFound
	}
	a.ModerationStatus = pulse.StatusRemoved
	return nil
}

func (r *stubArtifactRepo) CountRecentByOwner(ctx context.Context, ownerID string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.artifacts {
		if a.OwnerID == ownerID && !a.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// stubProfiles serves matching projections from a map.
type stubProfiles struct {
	profiles map[string]pulse.CandidateProfile
}

var _ repository.ProfileDirectory = (*stubProfiles)(nil)

func (d *stubProfiles) GetProfile(ctx context.Context, userID string) (*pulse.CandidateProfile, error) {
	p, ok := d.profiles[userID]
	if !ok {
		return nil, pulse.ErrProfileIncomplete
	}
	return &p, nil
}

func (d *stubProfiles) ListNearby(ctx context.Context, box pulse.BoundingBox, excludeUserID string, limit int) ([]pulse.CandidateProfile, error) {
	var out []pulse.CandidateProfile
	for id, p := range d.profiles {
		if id == excludeUserID || !p.HasLocation || !box.Contains(p.Lat, p.Lng) {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// recordingNotifier captures published events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	Topic   string
	Payload map[string]any
	Private bool
}

func (n *recordingNotifier) Publish(ctx context.Context, topic string, payload map[string]any, private bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, publishedEvent{Topic: topic, Payload: payload, Private: private})
	return nil
}

func (n *recordingNotifier) published() []publishedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]publishedEvent, len(n.events))
	copy(out, n.events)
	return out
}

// recordingQueue captures enqueued tasks for assertions.
type recordingQueue struct {
	mu    sync.Mutex
	tasks []queueport.Task
}

var _ queueport.Client = (*recordingQueue)(nil)

func (q *recordingQueue) Enqueue(ctx context.Context, t queueport.Task, opts ...queueport.EnqueueOption) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, t)
	return fmt.Sprintf("task-%d", len(q.tasks)), nil
}

func (q *recordingQueue) Close() error { return nil }

func (q *recordingQueue) enqueued() []queueport.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]queueport.Task, len(q.tasks))
	copy(out, q.tasks)
	return out
}
