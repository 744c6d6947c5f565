package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/FabianKeller/PlanCart/app/models"
	"github.com/FabianKeller/PlanCart/internal/pkg/env"
)

// ErrCustomerNotFound is returned for lookups that miss.
var ErrCustomerNotFound = errors.New("customer not found")

// maxProcessedEvents caps the webhook dedupe ring so the data file does not
// grow without bound.
const maxProcessedEvents = 1000

// Document is the single JSON document persisted to disk. Customers are
// keyed by the provider-assigned customer id.
type Document struct {
	Customers       map[string]*models.Customer `json:"customers"`
	ProcessedEvents []string                    `json:"processed_events"`
}

// Store persists one Document to a JSON file with a full-file rewrite on
// every mutation. All access goes through a process-wide mutex; the file
// format offers no concurrency control beyond that.
type Store struct {
	mu   sync.Mutex
	path string
	doc  *Document
}

var defaultStore *Store

// SetupStore initializes the global store from DATA_FILE_PATH.
func SetupStore() error {
	s, err := New(env.GetEnv("DATA_FILE_PATH", "plancart.json"))
	if err != nil {
		return err
	}
	defaultStore = s
	return nil
}

// GetStore returns the global store instance.
func GetStore() *Store {
	return defaultStore
}

// SetStore swaps the global store. Used by tests.
func SetStore(s *Store) {
	defaultStore = s
}

// New opens (or creates) a store at path. A missing file yields an empty
// document; corrupt JSON is an error rather than silent data loss.
func New(path string) (*Store, error) {
	s := &Store{path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.doc = emptyDocument()
			return nil
		}
		return fmt.Errorf("read data file %s: %w", s.path, err)
	}

	doc := emptyDocument()
	if len(data) > 0 {
		if err := json.Unmarshal(data, doc); err != nil {
			return fmt.Errorf("parse data file %s: %w", s.path, err)
		}
	}
	if doc.Customers == nil {
		doc.Customers = map[string]*models.Customer{}
	}
	s.doc = doc
	return nil
}

// flush rewrites the whole document. Temp file + rename keeps a crash from
// leaving a half-written file behind.
func (s *Store) flush() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".plancart-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, s.path)
}

func emptyDocument() *Document {
	return &Document{Customers: map[string]*models.Customer{}}
}

// GetCustomer returns a copy of the customer record for a provider id.
func (s *Store) GetCustomer(id string) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.doc.Customers[id]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	return cloneCustomer(c), nil
}

// FindCustomerByEmail returns a copy of the first customer whose normalized
// email matches.
func (s *Store) FindCustomerByEmail(email string) (*models.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := models.NormalizeEmail(email)
	for _, c := range s.doc.Customers {
		if models.NormalizeEmail(c.Email) == needle {
			return cloneCustomer(c), nil
		}
	}
	return nil, ErrCustomerNotFound
}

// SaveCustomer writes a customer record and rewrites the file.
func (s *Store) SaveCustomer(c *models.Customer) error {
	if c == nil || c.ID == "" {
		return errors.New("customer id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc.Customers[c.ID] = cloneCustomer(c)
	return s.flush()
}

// UpdateCustomer applies fn to the stored record under the store lock and
// persists the result. When the id is unknown a fresh skeleton record is
// created first, so out-of-order webhook events still have something to
// mutate.
func (s *Store) UpdateCustomer(id string, fn func(*models.Customer)) (*models.Customer, error) {
	if id == "" {
		return nil, errors.New("customer id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.doc.Customers[id]
	if !ok {
		c = models.NewCustomer(id, "", "")
		s.doc.Customers[id] = c
	}

	fn(c)
	if err := s.flush(); err != nil {
		return nil, err
	}
	return cloneCustomer(c), nil
}

// HasProcessedEvent reports whether a provider event id was recorded before.
func (s *Store) HasProcessedEvent(eventID string) bool {
	if eventID == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.doc.ProcessedEvents {
		if id == eventID {
			return true
		}
	}
	return false
}

// MarkEventProcessed records a provider event id for deduplication. It
// returns false when the id was seen before. An id is only retained when the
// rewrite succeeds; a failed write must leave the event eligible for retry.
func (s *Store) MarkEventProcessed(eventID string) (bool, error) {
	if eventID == "" {
		return true, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.doc.ProcessedEvents {
		if id == eventID {
			return false, nil
		}
	}

	prev := s.doc.ProcessedEvents
	next := append(append([]string(nil), prev...), eventID)
	if n := len(next); n > maxProcessedEvents {
		next = next[n-maxProcessedEvents:]
	}
	s.doc.ProcessedEvents = next
	if err := s.flush(); err != nil {
		s.doc.ProcessedEvents = prev
		return false, err
	}
	return true, nil
}

// ListCustomers returns copies of all records, for the admin page.
func (s *Store) ListCustomers() []*models.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.Customer, 0, len(s.doc.Customers))
	for _, c := range s.doc.Customers {
		out = append(out, cloneCustomer(c))
	}
	return out
}

// CustomerCount returns the number of stored customer records.
func (s *Store) CustomerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.doc.Customers)
}

// Wipe resets the document to empty. This is the only path that deletes
// customer records.
func (s *Store) Wipe() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = emptyDocument()
	return s.flush()
}

// cloneCustomer deep-copies a record via JSON so callers never hold aliases
// into the locked document.
func cloneCustomer(c *models.Customer) *models.Customer {
	data, err := json.Marshal(c)
	if err != nil {
		return c
	}
	out := &models.Customer{}
	if err := json.Unmarshal(data, out); err != nil {
		return c
	}
	return out
}
