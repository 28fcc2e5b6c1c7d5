package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kozaktomas/face-registry/internal/database"
)

func fixedClock(start time.Time) func() time.Time {
	t := start
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestStore_SnapshotOrderedByCreationThenName(t *testing.T) {
	s := New()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	s.Add(database.EnrolledRecord{Name: "carol", Descriptor: []float32{1}, CreatedAt: created.Add(time.Hour)})
	s.Add(database.EnrolledRecord{Name: "bob", Descriptor: []float32{1}, CreatedAt: created})
	s.Add(database.EnrolledRecord{Name: "alice", Descriptor: []float32{1}, CreatedAt: created})

	snapshot, err := s.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	want := []string{"alice", "bob", "carol"}
	if len(snapshot) != len(want) {
		t.Fatalf("Snapshot() returned %d records, want %d", len(snapshot), len(want))
	}
	for i, name := range want {
		if snapshot[i].Name != name {
			t.Errorf("snapshot[%d] = %s, want %s", i, snapshot[i].Name, name)
		}
	}
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	s := New()
	s.Add(database.EnrolledRecord{Name: "alice", Descriptor: []float32{0.5}})

	snapshot, _ := s.Snapshot(context.Background())
	snapshot[0].Descriptor[0] = 99

	rec, err := s.Get(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Descriptor[0] != 0.5 {
		t.Errorf("stored descriptor changed through snapshot: %v", rec.Descriptor)
	}
}

func TestStore_AddFillsDefaults(t *testing.T) {
	s := New()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.SetClock(fixedClock(start))
	s.Add(database.EnrolledRecord{Name: "alice"})

	rec, _ := s.Get(context.Background(), "alice")
	if rec.ID == "" {
		t.Error("expected generated ID")
	}
	if !rec.CreatedAt.Equal(start.Add(time.Second)) {
		t.Errorf("CreatedAt = %v", rec.CreatedAt)
	}
	if !rec.LastAccessAt.Equal(rec.CreatedAt) {
		t.Errorf("LastAccessAt = %v, want %v", rec.LastAccessAt, rec.CreatedAt)
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := New()
	rec, err := s.Get(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec != nil {
		t.Errorf("Get() = %+v, want nil", rec)
	}
}

func TestStore_Enroll(t *testing.T) {
	ctx := context.Background()
	s := New()

	var seen int
	ok, err := s.Enroll(ctx, &database.EnrolledRecord{Name: "alice", AccessCount: 1}, func(snapshot []database.EnrolledRecord) (bool, error) {
		seen = len(snapshot)
		return true, nil
	})
	if err != nil || !ok {
		t.Fatalf("Enroll() = %v, %v; want true, nil", ok, err)
	}
	if seen != 0 {
		t.Errorf("guard saw %d records, want 0", seen)
	}

	ok, err = s.Enroll(ctx, &database.EnrolledRecord{Name: "bob"}, func([]database.EnrolledRecord) (bool, error) {
		return false, nil
	})
	if err != nil || ok {
		t.Fatalf("rejected Enroll() = %v, %v; want false, nil", ok, err)
	}

	guardErr := errors.New("guard failed")
	if _, err := s.Enroll(ctx, &database.EnrolledRecord{Name: "bob"}, func([]database.EnrolledRecord) (bool, error) {
		return false, guardErr
	}); !errors.Is(err, guardErr) {
		t.Errorf("Enroll() error = %v, want %v", err, guardErr)
	}

	if count, _ := s.Count(ctx); count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestStore_EnrollNameBackstop(t *testing.T) {
	s := New()
	s.Add(database.EnrolledRecord{Name: "alice"})

	_, err := s.Enroll(context.Background(), &database.EnrolledRecord{Name: "alice"}, func([]database.EnrolledRecord) (bool, error) {
		return true, nil
	})
	if !errors.Is(err, database.ErrNameTaken) {
		t.Errorf("Enroll() error = %v, want ErrNameTaken", err)
	}
}

func TestStore_Touch(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Add(database.EnrolledRecord{Name: "alice", AccessCount: 1})

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := s.Touch(ctx, "alice", at); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}

	rec, _ := s.Get(ctx, "alice")
	if rec.AccessCount != 2 {
		t.Errorf("AccessCount = %d, want 2", rec.AccessCount)
	}
	if !rec.LastAccessAt.Equal(at) {
		t.Errorf("LastAccessAt = %v, want %v", rec.LastAccessAt, at)
	}

	if err := s.Touch(ctx, "nobody", at); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("Touch(nobody) error = %v, want ErrNotFound", err)
	}
	if s.TouchCalls != 2 {
		t.Errorf("TouchCalls = %d, want 2", s.TouchCalls)
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.Add(database.EnrolledRecord{Name: "bob"})
	s.Add(database.EnrolledRecord{Name: "alice"})

	users, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 2 || users[0].Name != "alice" || users[1].Name != "bob" {
		t.Errorf("List() = %+v", users)
	}

	if err := s.Delete(ctx, "alice"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, "alice"); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
	if count, _ := s.Count(ctx); count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}

func TestStore_ErrorInjection(t *testing.T) {
	ctx := context.Background()
	injected := errors.New("injected")
	s := New()
	s.SnapshotError = injected
	s.GetError = injected
	s.ListError = injected
	s.CountError = injected
	s.EnrollError = injected
	s.TouchError = injected
	s.DeleteError = injected

	if _, err := s.Snapshot(ctx); err != injected {
		t.Errorf("Snapshot() error = %v", err)
	}
	if _, err := s.Get(ctx, "x"); err != injected {
		t.Errorf("Get() error = %v", err)
	}
	if _, err := s.List(ctx); err != injected {
		t.Errorf("List() error = %v", err)
	}
	if _, err := s.Count(ctx); err != injected {
		t.Errorf("Count() error = %v", err)
	}
	if _, err := s.Enroll(ctx, &database.EnrolledRecord{Name: "x"}, nil); err != injected {
		t.Errorf("Enroll() error = %v", err)
	}
	if err := s.Touch(ctx, "x", time.Now()); err != injected {
		t.Errorf("Touch() error = %v", err)
	}
	if err := s.Delete(ctx, "x"); err != injected {
		t.Errorf("Delete() error = %v", err)
	}
}
