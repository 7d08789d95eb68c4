// Package cartstore persists the canonical cart, one JSON record per
// browser token, on an injectable filesystem.
package cartstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/mygitvirtual012322/carrefourloja/internal/model"
)

// Store owns cart persistence and all mutating operations. Mutations
// serialize on a single mutex: a mutation completes (mutate, recompute
// total, persist) before any dependent read observes it, matching the
// add-then-read ordering the storefront pages rely on. Across processes
// the record is last-write-wins by design.
type Store struct {
	mu     sync.Mutex
	fs     afero.Fs
	dir    string
	logger *slog.Logger
}

// New creates a Store writing records under dir.
func New(fs afero.Fs, dir string, logger *slog.Logger) *Store {
	return &Store{fs: fs, dir: dir, logger: logger}
}

// NewToken mints an opaque cart token for a browser that has none.
func NewToken() string {
	return uuid.NewString()
}

// Load reads the persisted cart for token. A missing or unparseable
// record degrades to an empty cart; corruption is logged, never
// propagated.
func (s *Store) Load(token string) model.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(token)
}

// Save persists the full cart, replacing any previous record.
func (s *Store) Save(token string, cart model.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(token, cart)
}

// AddItem merges item into the cart per the line-identity rule:
// a matching existing line gains quantity, otherwise the item is
// appended with quantity 1 and normalized fields. Returns the updated
// cart after it has been persisted.
func (s *Store) AddItem(token string, item model.CartItem) (model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.load(token)
	if idx := cart.FindLine(item); idx >= 0 {
		cart.Items[idx].Quantity++
	} else {
		item.Quantity = 1
		item.Normalize()
		if err := item.Validate(); err != nil {
			return cart, err
		}
		if item.Price == 0 {
			// Degrades now, blocks later at the checkout gate.
			s.logger.Warn("adding item with zero price",
				slog.String("id", item.ID),
				slog.String("title", item.Title),
			)
		}
		cart.Items = append(cart.Items, item)
	}

	cart.Total = cart.CalculateTotal()
	if err := s.save(token, cart); err != nil {
		return s.load(token), err
	}
	return cart, nil
}

// UpdateQuantity sets the quantity of the line matching id. A quantity
// of zero or less removes the line.
func (s *Store) UpdateQuantity(token, id string, quantity int) (model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.load(token)
	idx := -1
	for i, it := range cart.Items {
		if it.ID == id || it.Key() == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return cart, model.NewNotFoundError("cart line")
	}
	return s.applyLineChange(token, cart, idx, quantity)
}

// UpdateLine addresses a line by its 1-based position, the addressing
// mode of the storefront's cart-line-update endpoint. Quantity zero or
// less removes the line.
func (s *Store) UpdateLine(token string, line, quantity int) (model.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.load(token)
	if line < 1 || line > len(cart.Items) {
		return cart, model.NewValidationError("line", fmt.Sprintf("line %d out of range", line))
	}
	return s.applyLineChange(token, cart, line-1, quantity)
}

// RemoveItem deletes the line matching id.
func (s *Store) RemoveItem(token, id string) (model.Cart, error) {
	return s.UpdateQuantity(token, id, 0)
}

// Clear removes the persisted record entirely. Only an explicit clear
// deletes a cart; nothing expires it automatically.
func (s *Store) Clear(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.fs.Remove(s.recordPath(token))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clearing cart %s: %w", token, err)
	}
	return nil
}

// applyLineChange mutates one line, recomputes the total, and persists.
// Caller holds the mutex.
func (s *Store) applyLineChange(token string, cart model.Cart, idx, quantity int) (model.Cart, error) {
	if quantity <= 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	} else {
		cart.Items[idx].Quantity = quantity
	}
	cart.Total = cart.CalculateTotal()
	if err := s.save(token, cart); err != nil {
		return s.load(token), err
	}
	return cart, nil
}

func (s *Store) load(token string) model.Cart {
	data, err := afero.ReadFile(s.fs, s.recordPath(token))
	if err != nil {
		return model.Empty()
	}

	var cart model.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		s.logger.Warn("persisted cart unreadable, starting empty",
			slog.String("token", token),
			slog.String("error", err.Error()),
		)
		return model.Empty()
	}
	if cart.Items == nil {
		cart.Items = []model.CartItem{}
	}
	return cart
}

func (s *Store) save(token string, cart model.Cart) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating cart dir: %w", err)
	}
	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encoding cart: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.recordPath(token), data, 0o644); err != nil {
		return fmt.Errorf("writing cart %s: %w", token, err)
	}
	return nil
}

func (s *Store) recordPath(token string) string {
	return path.Join(s.dir, sanitizeToken(token)+".json")
}

// sanitizeToken restricts tokens to filename-safe characters so a
// hostile cookie cannot escape the record directory.
func sanitizeToken(token string) string {
	cleaned := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return -1
	}, token)
	if cleaned == "" {
		return "default"
	}
	return cleaned
}
