package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	pulse "go-pulse/internal/pkg/pulse/domain"
	repository "go-pulse/internal/pkg/pulse/persistence/repository/port"
)

// memArtifactRepo is an in-memory ArtifactRepository honoring the mutation
// contract: cap check, flag dedupe and escalation are all done under one lock
// so concurrent callers observe the same atomicity as the SQL adapter.
type memArtifactRepo struct {
	mu        sync.Mutex
	artifacts map[string]*pulse.Artifact
	flags     map[string]map[string]bool // artifactID -> reporterID set
	nextID    int
	failWith  error // when set, every call fails
}

func newMemArtifactRepo() *memArtifactRepo {
	return &memArtifactRepo{
		artifacts: make(map[string]*pulse.Artifact),
		flags:     make(map[string]map[string]bool),
	}
}

var _ repository.ArtifactRepository = (*memArtifactRepo)(nil)

func (r *memArtifactRepo) CreateArtifact(ctx context.Context, a pulse.Artifact) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return "", r.failWith
	}

	count := 0
	for _, existing := range r.artifacts {
		if existing.OwnerID == a.OwnerID && existing.Type == a.Type &&
			!existing.CreatedAt.Before(a.CreatedAt.Add(-24*time.Hour)) {
			count++
		}
	}
	if count >= a.Type.DailyCap() {
		return "", pulse.ErrDailyCapExceeded
	}

	r.nextID++
	id := fmt.Sprintf("artifact-%d", r.nextID)
	stored := a
	stored.ID = id
	r.artifacts[id] = &stored
	return id, nil
}

func (r *memArtifactRepo) GetArtifact(ctx context.Context, id string) (*pulse.Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	a, ok := r.artifacts[id]
	if !ok {
		return nil, pulse.ErrArtifactNotFound
	}
	out := *a
	return &out, nil
}

func (r *memArtifactRepo) QueryActive(ctx context.Context, q repository.ArtifactQuery) ([]pulse.Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}

	var out []pulse.Artifact
	for _, a := range r.artifacts {
		if !a.Visible(q.Now) {
			continue
		}
		if !q.Box.Contains(a.Lat, a.Lng) {
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

func (r *memArtifactRepo) RecordFlag(ctx context.Context, artifactID, reporterID string, threshold int) (repository.FlagOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return repository.FlagOutcome{}, r.failWith
	}

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

func (r *memArtifactRepo) MarkRemoved(ctx context.Context, artifactID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	a, ok := r.artifacts[artifactID]
	if !ok {
		return pulse.ErrArtifactNotFound
	}
	a.ModerationStatus = pulse.StatusRemoved
	return nil
}

func (r *memArtifactRepo) CountRecentByOwner(ctx context.Context, ownerID string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return 0, r.failWith
	}
	n := 0
	for _, a := range r.artifacts {
		if a.OwnerID == ownerID && !a.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// seed inserts an artifact directly, bypassing the cap.
func (r *memArtifactRepo) seed(a pulse.Artifact) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	id := fmt.Sprintf("artifact-%d", r.nextID)
	stored := a
	stored.ID = id
	r.artifacts[id] = &stored
	return id
}

// memProfileDirectory is an in-memory ProfileDirectory.
type memProfileDirectory struct {
	profiles map[string]pulse.CandidateProfile
	failWith error
}

func newMemProfileDirectory() *memProfileDirectory {
	return &memProfileDirectory{profiles: make(map[string]pulse.CandidateProfile)}
}

var _ repository.ProfileDirectory = (*memProfileDirectory)(nil)

func (d *memProfileDirectory) GetProfile(ctx context.Context, userID string) (*pulse.CandidateProfile, error) {
	if d.failWith != nil {
		return nil, d.failWith
	}
	p, ok := d.profiles[userID]
	if !ok {
		return nil, pulse.ErrProfileIncomplete
	}
	return &p, nil
}

func (d *memProfileDirectory) ListNearby(ctx context.Context, box pulse.BoundingBox, excludeUserID string, limit int) ([]pulse.CandidateProfile, error) {
	if d.failWith != nil {
		return nil, d.failWith
	}
	var out []pulse.CandidateProfile
	for id, p := range d.profiles {
		if id == excludeUserID {
			continue
		}
		if !p.HasLocation || !box.Contains(p.Lat, p.Lng) {
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

// fixedVisibility returns one multiplier per user, defaulting to full.
type fixedVisibility struct {
	multipliers map[string]float64
	failWith    error
}

var _ repository.VisibilityProvider = (*fixedVisibility)(nil)

func (v *fixedVisibility) VisibilityMultiplier(ctx context.Context, userID string) (float64, error) {
	if v.failWith != nil {
		return 0, v.failWith
	}
	if m, ok := v.multipliers[userID]; ok {
		return m, nil
	}
	return 1.0, nil
}
