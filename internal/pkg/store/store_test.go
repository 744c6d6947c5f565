package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/FabianKeller/PlanCart/app/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "plancart.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNewMissingFileStartsEmpty(t *testing.T) {
	s := newTestStore(t)
	if got := s.CustomerCount(); got != 0 {
		t.Fatalf("expected empty store, got %d customers", got)
	}
}

func TestNewCorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plancart.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := New(path); err == nil {
		t.Fatalf("expected error for corrupt data file")
	}
}

func TestSaveAndGetCustomer(t *testing.T) {
	s := newTestStore(t)

	c := models.NewCustomer("cus_1", "a@example.com", "A")
	if err := s.SaveCustomer(c); err != nil {
		t.Fatalf("SaveCustomer: %v", err)
	}

	got, err := s.GetCustomer("cus_1")
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if got.Email != "a@example.com" {
		t.Fatalf("expected stored email, got %q", got.Email)
	}

	// Returned record must be a copy, not an alias into the document.
	got.Email = "mutated@example.com"
	again, err := s.GetCustomer("cus_1")
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if again.Email != "a@example.com" {
		t.Fatalf("stored record was mutated through a returned copy")
	}
}

func TestGetCustomerUnknown(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetCustomer("cus_missing"); err != ErrCustomerNotFound {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestFindCustomerByEmailIsCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveCustomer(models.NewCustomer("cus_1", "Jane.Doe@Example.com", "Jane")); err != nil {
		t.Fatalf("SaveCustomer: %v", err)
	}

	got, err := s.FindCustomerByEmail("  JANE.DOE@example.COM ")
	if err != nil {
		t.Fatalf("FindCustomerByEmail: %v", err)
	}
	if got.ID != "cus_1" {
		t.Fatalf("expected cus_1, got %q", got.ID)
	}

	if _, err := s.FindCustomerByEmail("nobody@example.com"); err != ErrCustomerNotFound {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestUpdateCustomerCreatesSkeleton(t *testing.T) {
	s := newTestStore(t)

	got, err := s.UpdateCustomer("cus_new", func(c *models.Customer) {
		c.Email = "new@example.com"
	})
	if err != nil {
		t.Fatalf("UpdateCustomer: %v", err)
	}
	if got.ID != "cus_new" || got.Email != "new@example.com" {
		t.Fatalf("unexpected record %+v", got)
	}
	if got.Entitlements == nil || got.SuspendedEntitlements == nil {
		t.Fatalf("skeleton record must have initialized maps")
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plancart.json")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.SaveCustomer(models.NewCustomer("cus_1", "a@example.com", "A")); err != nil {
		t.Fatalf("SaveCustomer: %v", err)
	}
	if _, err := s.MarkEventProcessed("evt_1"); err != nil {
		t.Fatalf("MarkEventProcessed: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := reopened.GetCustomer("cus_1"); err != nil {
		t.Fatalf("customer lost across reopen: %v", err)
	}
	fresh, err := reopened.MarkEventProcessed("evt_1")
	if err != nil {
		t.Fatalf("MarkEventProcessed: %v", err)
	}
	if fresh {
		t.Fatalf("processed event id lost across reopen")
	}
}

func TestMarkEventProcessedDeduplicates(t *testing.T) {
	s := newTestStore(t)

	fresh, err := s.MarkEventProcessed("evt_1")
	if err != nil || !fresh {
		t.Fatalf("first MarkEventProcessed = (%v, %v), want (true, nil)", fresh, err)
	}
	fresh, err = s.MarkEventProcessed("evt_1")
	if err != nil || fresh {
		t.Fatalf("second MarkEventProcessed = (%v, %v), want (false, nil)", fresh, err)
	}
}

func TestMarkEventProcessedCapsHistory(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < maxProcessedEvents+10; i++ {
		if _, err := s.MarkEventProcessed(fmt.Sprintf("evt_%d", i)); err != nil {
			t.Fatalf("MarkEventProcessed: %v", err)
		}
	}

	if n := len(s.doc.ProcessedEvents); n != maxProcessedEvents {
		t.Fatalf("expected history capped at %d, got %d", maxProcessedEvents, n)
	}
	// The oldest entries fell out of the window, so they count as fresh again.
	fresh, err := s.MarkEventProcessed("evt_0")
	if err != nil || !fresh {
		t.Fatalf("evicted event id should be fresh again, got (%v, %v)", fresh, err)
	}
}

func TestMarkEventProcessedNotRetainedOnWriteFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	s, err := New(filepath.Join(dir, "plancart.json"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Removing the directory makes the temp-file rewrite fail.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if _, err := s.MarkEventProcessed("evt_1"); err == nil {
		t.Fatalf("expected write failure")
	}
	if s.HasProcessedEvent("evt_1") {
		t.Fatalf("event id must not be retained when the write fails")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	fresh, err := s.MarkEventProcessed("evt_1")
	if err != nil || !fresh {
		t.Fatalf("event id should still be fresh after a failed write, got (%v, %v)", fresh, err)
	}
}

func TestHasProcessedEvent(t *testing.T) {
	s := newTestStore(t)

	if s.HasProcessedEvent("evt_1") {
		t.Fatalf("unseen event id reported as processed")
	}
	if _, err := s.MarkEventProcessed("evt_1"); err != nil {
		t.Fatalf("MarkEventProcessed: %v", err)
	}
	if !s.HasProcessedEvent("evt_1") {
		t.Fatalf("recorded event id not reported as processed")
	}
	if s.HasProcessedEvent("") {
		t.Fatalf("empty event id must never count as processed")
	}
}

func TestWipe(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveCustomer(models.NewCustomer("cus_1", "a@example.com", "A")); err != nil {
		t.Fatalf("SaveCustomer: %v", err)
	}
	if _, err := s.MarkEventProcessed("evt_1"); err != nil {
		t.Fatalf("MarkEventProcessed: %v", err)
	}

	if err := s.Wipe(); err != nil {
		t.Fatalf("Wipe: %v", err)
	}
	if got := s.CustomerCount(); got != 0 {
		t.Fatalf("expected 0 customers after wipe, got %d", got)
	}
	fresh, err := s.MarkEventProcessed("evt_1")
	if err != nil || !fresh {
		t.Fatalf("expected event history cleared by wipe, got (%v, %v)", fresh, err)
	}
}
