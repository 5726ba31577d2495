package storage

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// migrations are not re-applied.
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

func TestMigrationsOrdered(t *testing.T) {
	s := openTestStore(t)

	versions, err := s.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(versions) == 0 {
		t.Fatal("expected at least one applied migration")
	}
	for i := 1; i < len(versions); i++ {
		if versions[i] <= versions[i-1] {
			t.Errorf("migrations not in ascending order: %v", versions)
			break
		}
	}
}

func testAssessment(id string, createdAt time.Time) Assessment {
	return Assessment{
		ID:              id,
		CreatedAt:       createdAt,
		Sector:          "Manufacturing",
		Company:         `{"name":"Acme Organics","sector_type":"Manufacturing"}`,
		Composite:       62,
		Badge:           "Developing",
		PillarScores:    `{"Environmental":3.1,"Social":2.8,"Governance":3.4}`,
		Answers:         `{"env_energy":"We track consumption monthly with reduction targets"}`,
		Narrative:       "",
		NarrativeStatus: NarrativeSkipped,
	}
}

func TestSaveAndGetAssessment(t *testing.T) {
	s := openTestStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	want := testAssessment("a-001", now)
	if err := s.SaveAssessment(want); err != nil {
		t.Fatalf("SaveAssessment: %v", err)
	}

	got, err := s.GetAssessment("a-001")
	if err != nil {
		t.Fatalf("GetAssessment: %v", err)
	}
	if got.Composite != want.Composite || got.Badge != want.Badge || got.Sector != want.Sector {
		t.Errorf("round-trip mismatch: got %+v", got)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, now)
	}
	if got.PillarScores != want.PillarScores || got.Answers != want.Answers || got.Company != want.Company {
		t.Errorf("JSON columns mismatch: %+v", got)
	}
}

func TestGetAssessment_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetAssessment("nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListAssessments_OrderAndPagination(t *testing.T) {
	s := openTestStore(t)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		a := testAssessment(fmt.Sprintf("a-%03d", i), base.Add(time.Duration(i)*time.Hour))
		if err := s.SaveAssessment(a); err != nil {
			t.Fatalf("SaveAssessment: %v", err)
		}
	}

	page, err := s.ListAssessments(2, 0)
	if err != nil {
		t.Fatalf("ListAssessments: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 results, got %d", len(page))
	}
	if page[0].ID != "a-004" || page[1].ID != "a-003" {
		t.Errorf("expected newest first, got %s, %s", page[0].ID, page[1].ID)
	}

	rest, err := s.ListAssessments(10, 2)
	if err != nil {
		t.Fatalf("ListAssessments offset: %v", err)
	}
	if len(rest) != 3 {
		t.Errorf("expected 3 remaining, got %d", len(rest))
	}
}

func TestLatestAssessment(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.LatestAssessment(); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty store: expected ErrNotFound, got %v", err)
	}

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.SaveAssessment(testAssessment("a-old", base))
	s.SaveAssessment(testAssessment("a-new", base.Add(time.Hour)))

	got, err := s.LatestAssessment()
	if err != nil {
		t.Fatalf("LatestAssessment: %v", err)
	}
	if got.ID != "a-new" {
		t.Errorf("latest = %s, want a-new", got.ID)
	}
}

func TestDeleteAssessment(t *testing.T) {
	s := openTestStore(t)

	s.SaveAssessment(testAssessment("a-001", time.Now().UTC()))
	if err := s.DeleteAssessment("a-001"); err != nil {
		t.Fatalf("DeleteAssessment: %v", err)
	}
	if _, err := s.GetAssessment("a-001"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteAssessment("a-001"); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateNarrative(t *testing.T) {
	s := openTestStore(t)

	s.SaveAssessment(testAssessment("a-001", time.Now().UTC()))
	if err := s.UpdateNarrative("a-001", "Plant trees.", NarrativeReady); err != nil {
		t.Fatalf("UpdateNarrative: %v", err)
	}

	got, err := s.GetAssessment("a-001")
	if err != nil {
		t.Fatalf("GetAssessment: %v", err)
	}
	if got.Narrative != "Plant trees." || got.NarrativeStatus != NarrativeReady {
		t.Errorf("narrative not updated: %+v", got)
	}

	if err := s.UpdateNarrative("missing", "x", NarrativeFailed); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestProfileKeys(t *testing.T) {
	s := openTestStore(t)

	if err := s.SetProfileKey("company.name", "Acme Organics"); err != nil {
		t.Fatalf("SetProfileKey: %v", err)
	}
	if err := s.SetProfileKey("company.name", "Acme Organics Ltd"); err != nil {
		t.Fatalf("SetProfileKey upsert: %v", err)
	}
	s.SetProfileKey("company.sector_type", "Agriculture")

	v, err := s.GetProfileKey("company.name")
	if err != nil {
		t.Fatalf("GetProfileKey: %v", err)
	}
	if v != "Acme Organics Ltd" {
		t.Errorf("value = %q, want upserted value", v)
	}

	all, err := s.GetAllProfileKeys()
	if err != nil {
		t.Fatalf("GetAllProfileKeys: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 keys, got %d: %v", len(all), all)
	}

	if _, err := s.GetProfileKey("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
