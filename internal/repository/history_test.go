package repository

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rizkywidodo/TugasAkhir/internal/models"
)

func seedUser(t *testing.T, repo UserRepository, email string) int64 {
	t.Helper()
	user := &models.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: "x",
		Role:         models.RoleResearcher,
		CreatedAt:    time.Now().UTC(),
	}
	if err := repo.CreateUser(user); err != nil {
		t.Fatalf("seeding user failed: %v", err)
	}
	return user.ID
}

func newEntry(userID int64, base time.Time, i int) *models.ClassificationHistory {
	results := fmt.Sprintf(`[{"author":"a","comment":"c%d","prediction":"Comment","confidence":0.9,"issue_number":"1"}]`, i)
	return &models.ClassificationHistory{
		UserID:      &userID,
		Timestamp:   base.Add(time.Duration(i) * time.Minute),
		ModelName:   "mrizkywidodo/bert-base-rizkywidodo",
		ModelType:   models.ModelTypeSystem,
		SourceType:  "github",
		IssueURL:    fmt.Sprintf("https://github.com/octo/demo/issues/%d", i),
		IssueTitle:  fmt.Sprintf("Issue %d", i),
		IssueNumber: fmt.Sprintf("%d", i),
		ResultCount: 1,
		ResultsJSON: results,
		Status:      models.StatusCompleted,
	}
}

func TestHistoryPagination(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, NewUserRepository(db, testLogrus()), "page@test.local")
	repo := NewHistoryRepository(db, testZap())

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 15; i++ {
		if err := repo.CreateHistory(newEntry(userID, base, i)); err != nil {
			t.Fatalf("CreateHistory %d failed: %v", i, err)
		}
	}

	page1, err := repo.ListByUser(userID, HistoryFilter{Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("ListByUser page 1 failed: %v", err)
	}
	if len(page1.Items) != 10 || !page1.HasNext || page1.HasPrev {
		t.Errorf("page 1: items=%d has_next=%v has_prev=%v", len(page1.Items), page1.HasNext, page1.HasPrev)
	}
	// Newest first: the last inserted entry leads the first page.
	if page1.Items[0].IssueNumber != "14" {
		t.Errorf("page 1 not newest-first, got issue %s", page1.Items[0].IssueNumber)
	}

	page2, err := repo.ListByUser(userID, HistoryFilter{Page: 2, PerPage: 10})
	if err != nil {
		t.Fatalf("ListByUser page 2 failed: %v", err)
	}
	if len(page2.Items) != 5 {
		t.Errorf("page 2: expected 5 items, got %d", len(page2.Items))
	}
	if page2.HasNext {
		t.Error("page 2 of 15 entries must have has_next=false")
	}
	if !page2.HasPrev {
		t.Error("page 2 must have has_prev=true")
	}
	if page2.Total != 15 || page2.Pages != 2 {
		t.Errorf("total=%d pages=%d, want 15/2", page2.Total, page2.Pages)
	}
}

func TestHistoryPerPageClamping(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, NewUserRepository(db, testLogrus()), "clamp@test.local")
	repo := NewHistoryRepository(db, testZap())

	page, err := repo.ListByUser(userID, HistoryFilter{Page: 0, PerPage: 1000})
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if page.Page != 1 {
		t.Errorf("page clamped to %d, want 1", page.Page)
	}
	if page.PerPage != 100 {
		t.Errorf("per_page clamped to %d, want 100", page.PerPage)
	}
}

func TestHistoryFilters(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, NewUserRepository(db, testLogrus()), "filter@test.local")
	repo := NewHistoryRepository(db, testZap())

	base := time.Now().UTC()
	first := newEntry(userID, base, 0)
	if err := repo.CreateHistory(first); err != nil {
		t.Fatal(err)
	}
	second := newEntry(userID, base, 1)
	second.ModelName = "other/model"
	second.Status = models.StatusFailed
	if err := repo.CreateHistory(second); err != nil {
		t.Fatal(err)
	}

	byModel, err := repo.ListByUser(userID, HistoryFilter{ModelName: "other/model"})
	if err != nil {
		t.Fatal(err)
	}
	if len(byModel.Items) != 1 || byModel.Items[0].ModelName != "other/model" {
		t.Errorf("model_name filter returned %d items", len(byModel.Items))
	}

	// Conjunctive: matching model_name but mismatching status yields nothing.
	combined, err := repo.ListByUser(userID, HistoryFilter{ModelName: "other/model", Status: models.StatusCompleted})
	if err != nil {
		t.Fatal(err)
	}
	if len(combined.Items) != 0 {
		t.Errorf("conjunctive filter returned %d items, want 0", len(combined.Items))
	}
}

func TestHistoryOwnershipIsolation(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db, testLogrus())
	alice := seedUser(t, users, "alice@test.local")
	bob := seedUser(t, users, "bob@test.local")
	repo := NewHistoryRepository(db, testZap())

	entry := newEntry(alice, time.Now().UTC(), 0)
	if err := repo.CreateHistory(entry); err != nil {
		t.Fatal(err)
	}

	if _, err := repo.GetByID(bob, entry.ID); !errors.Is(err, ErrHistoryNotFound) {
		t.Errorf("GetByID across users = %v, want ErrHistoryNotFound", err)
	}
	if err := repo.UpdateResults(bob, entry.ID, "[]", 0); !errors.Is(err, ErrHistoryNotFound) {
		t.Errorf("UpdateResults across users = %v, want ErrHistoryNotFound", err)
	}
	if err := repo.DeleteByID(bob, entry.ID); !errors.Is(err, ErrHistoryNotFound) {
		t.Errorf("DeleteByID across users = %v, want ErrHistoryNotFound", err)
	}

	// The entry must be untouched for its owner.
	got, err := repo.GetByID(alice, entry.ID)
	if err != nil {
		t.Fatalf("owner lost access to own entry: %v", err)
	}
	if got.ResultCount != 1 {
		t.Errorf("entry mutated by denied operations: %+v", got)
	}
}

func TestHistoryUpdateResultsRecomputesCount(t *testing.T) {
	db := newTestDB(t)
	userID := seedUser(t, NewUserRepository(db, testLogrus()), "update@test.local")
	repo := NewHistoryRepository(db, testZap())

	entry := newEntry(userID, time.Now().UTC(), 0)
	if err := repo.CreateHistory(entry); err != nil {
		t.Fatal(err)
	}

	updated := `[{"author":"a","comment":"x","prediction":"FIR","confidence":0.8,"issue_number":"1"},` +
		`{"author":"b","comment":"y","prediction":"NFR","confidence":0.7,"issue_number":"1"}]`
	if err := repo.UpdateResults(userID, entry.ID, updated, 2); err != nil {
		t.Fatalf("UpdateResults failed: %v", err)
	}

	got, err := repo.GetByID(userID, entry.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ResultCount != 2 {
		t.Errorf("result_count = %d, want 2", got.ResultCount)
	}
	if len(got.Results()) != 2 {
		t.Errorf("decoded results = %d, want 2", len(got.Results()))
	}
}

func TestHistoryClearByUser(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db, testLogrus())
	alice := seedUser(t, users, "alice2@test.local")
	bob := seedUser(t, users, "bob2@test.local")
	repo := NewHistoryRepository(db, testZap())

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		if err := repo.CreateHistory(newEntry(alice, base, i)); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.CreateHistory(newEntry(bob, base, 9)); err != nil {
		t.Fatal(err)
	}

	deleted, err := repo.ClearByUser(alice)
	if err != nil {
		t.Fatalf("ClearByUser failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}

	remaining, err := repo.ListAllByUser(alice)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 0 {
		t.Errorf("alice still has %d entries after clear", len(remaining))
	}

	bobEntries, err := repo.ListAllByUser(bob)
	if err != nil {
		t.Fatal(err)
	}
	if len(bobEntries) != 1 {
		t.Errorf("clear must not touch other users, bob has %d entries", len(bobEntries))
	}

	// Clearing an already-empty history reports zero.
	deleted, err = repo.ClearByUser(alice)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 0 {
		t.Errorf("second clear deleted %d, want 0", deleted)
	}
}
