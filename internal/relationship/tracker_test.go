package relationship

import (
	"context"
	"math"
	"testing"

	"github.com/easeaico/project-kokoro/internal/types"
)

type mockRelationshipRepo struct {
	rows map[string]types.UserRelationship
}

func newMockRelationshipRepo() *mockRelationshipRepo {
	return &mockRelationshipRepo{rows: make(map[string]types.UserRelationship)}
}

func (m *mockRelationshipRepo) GetOrCreate(ctx context.Context, userID string, privileged bool, trustSeed float64) (types.UserRelationship, error) {
	if rel, ok := m.rows[userID]; ok {
		return rel, nil
	}
	rel := types.UserRelationship{UserID: userID, RelationshipType: "regular", BotFeeling: "neutral"}
	if privileged {
		rel.TrustScore = trustSeed
		rel.RelationshipType = "admin"
	}
	m.rows[userID] = rel
	return rel, nil
}

func (m *mockRelationshipRepo) Update(ctx context.Context, rel types.UserRelationship, expectedTotal int) (bool, error) {
	current := m.rows[rel.UserID]
	if current.TotalInteractions != expectedTotal {
		return false, nil
	}
	m.rows[rel.UserID] = rel
	return true, nil
}

func TestGetSeedsPrivilegedSender(t *testing.T) {
	repo := newMockRelationshipRepo()
	tracker := NewTracker(repo, 0.9)

	rel, err := tracker.Get(context.Background(), "admin-1", true)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if rel.TrustScore != 0.9 {
		t.Fatalf("expected trust 0.9, got %v", rel.TrustScore)
	}
	if rel.RelationshipType != "admin" {
		t.Fatalf("expected admin type, got %q", rel.RelationshipType)
	}
}

func TestNewTrackerRejectsLowSeed(t *testing.T) {
	repo := newMockRelationshipRepo()
	tracker := NewTracker(repo, 0.5)

	rel, err := tracker.Get(context.Background(), "admin-1", true)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if rel.TrustScore != 0.85 {
		t.Fatalf("expected default seed 0.85, got %v", rel.TrustScore)
	}
}

func TestUpdateClampsAndCounts(t *testing.T) {
	repo := newMockRelationshipRepo()
	repo.rows["user-1"] = types.UserRelationship{
		UserID:     "user-1",
		TrustScore: 0.95,
	}
	tracker := NewTracker(repo, 0.85)

	rel, err := tracker.Update(context.Background(), "user-1", 0.2, -0.1, 0.05, true, "")
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if rel.TrustScore != 1.0 {
		t.Fatalf("expected trust clamped to 1.0, got %v", rel.TrustScore)
	}
	if rel.FriendshipLevel != 0.0 {
		t.Fatalf("expected friendship clamped to 0.0, got %v", rel.FriendshipLevel)
	}
	if rel.TotalInteractions != 1 || rel.PositiveInteractions != 1 {
		t.Fatalf("expected counters 1/1, got %d/%d", rel.TotalInteractions, rel.PositiveInteractions)
	}
}

func TestUpdateNegativeDoesNotCountPositive(t *testing.T) {
	repo := newMockRelationshipRepo()
	tracker := NewTracker(repo, 0.85)

	rel, err := tracker.Update(context.Background(), "user-1", -0.01, 0, 0.01, false, "")
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if rel.TotalInteractions != 1 {
		t.Fatalf("expected total 1, got %d", rel.TotalInteractions)
	}
	if rel.PositiveInteractions != 0 {
		t.Fatalf("expected positive 0, got %d", rel.PositiveInteractions)
	}
}

func TestUpdatePreservesAdminType(t *testing.T) {
	repo := newMockRelationshipRepo()
	tracker := NewTracker(repo, 0.85)
	if _, err := tracker.Get(context.Background(), "admin-1", true); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}

	rel, err := tracker.Update(context.Background(), "admin-1", 0.01, 0.01, 0.01, true, "friend")
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if rel.RelationshipType != "admin" {
		t.Fatalf("expected admin type preserved, got %q", rel.RelationshipType)
	}
}

func TestDeriveFeelingThresholds(t *testing.T) {
	cases := []struct {
		trust, friendship, familiarity float64
		want                           string
	}{
		{0, 0, 0, "distant"},
		{0.3, 0.1, 0.1, "wary"},
		{0.4, 0.3, 0.3, "neutral"},
		{0.7, 0.4, 0.4, "friendly"},
		{0.9, 0.8, 0.7, "close"},
		{1.0, 1.0, 1.0, "trusted"},
	}
	for _, tc := range cases {
		got := deriveFeeling(tc.trust, tc.friendship, tc.familiarity)
		if got != tc.want {
			blend := 0.45*tc.trust + 0.35*tc.friendship + 0.2*tc.familiarity
			t.Errorf("blend %v: expected %q, got %q", math.Round(blend*100)/100, tc.want, got)
		}
	}
}
