package artworks

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/multierr"
)

//go:embed fixtures/artworks.json
var fixtures embed.FS

// Repository keeps the collection in memory. Admin edits live until the process exits.
type Repository struct {
	mu    sync.RWMutex
	works []Artwork
}

// LoadRepository reads the artwork fixture from path, or the embedded fixture when empty.
func LoadRepository(path string) (*Repository, error) {
	var (
		raw []byte
		err error
	)
	if strings.TrimSpace(path) != "" {
		raw, err = os.ReadFile(path)
	} else {
		raw, err = fixtures.ReadFile("fixtures/artworks.json")
	}
	if err != nil {
		return nil, fmt.Errorf("reading artworks fixture: %w", err)
	}

	var works []Artwork
	if err := json.Unmarshal(raw, &works); err != nil {
		return nil, fmt.Errorf("decoding artworks fixture: %w", err)
	}
	return NewRepository(works)
}

// NewRepository validates the seed collection. Every violation is reported.
func NewRepository(works []Artwork) (*Repository, error) {
	seen := make(map[int]struct{}, len(works))
	var errs error
	for pos, w := range works {
		if w.ID <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("artwork at position %d: id must be positive", pos))
			continue
		}
		if _, dup := seen[w.ID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("artwork %d: duplicate id", w.ID))
			continue
		}
		if strings.TrimSpace(w.Title) == "" {
			errs = multierr.Append(errs, fmt.Errorf("artwork %d: title is required", w.ID))
		}
		seen[w.ID] = struct{}{}
	}
	if errs != nil {
		return nil, errs
	}

	out := make([]Artwork, len(works))
	for i, w := range works {
		w.QRCode = CodeFor(w.ID)
		out[i] = w
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return &Repository{works: out}, nil
}

func (r *Repository) all() []Artwork {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Artwork, len(r.works))
	copy(out, r.works)
	return out
}

func (r *Repository) find(id int) (Artwork, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if pos := r.position(id); pos >= 0 {
		return r.works[pos], true
	}
	return Artwork{}, false
}

// insert assigns the next id and stores w.
func (r *Repository) insert(w Artwork) Artwork {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := 1
	if n := len(r.works); n > 0 {
		next = r.works[n-1].ID + 1
	}
	w.ID = next
	w.QRCode = CodeFor(next)
	r.works = append(r.works, w)
	return w
}

func (r *Repository) modify(id int, fn func(Artwork) Artwork) (Artwork, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos := r.position(id)
	if pos < 0 {
		return Artwork{}, false
	}
	updated := fn(r.works[pos])
	updated.ID = id
	updated.QRCode = CodeFor(id)
	r.works[pos] = updated
	return updated, true
}

func (r *Repository) remove(id int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	pos := r.position(id)
	if pos < 0 {
		return false
	}
	r.works = append(r.works[:pos], r.works[pos+1:]...)
	return true
}

// position expects the lock to be held. works stay sorted by id.
func (r *Repository) position(id int) int {
	pos := sort.Search(len(r.works), func(i int) bool { return r.works[i].ID >= id })
	if pos < len(r.works) && r.works[pos].ID == id {
		return pos
	}
	return -1
}
