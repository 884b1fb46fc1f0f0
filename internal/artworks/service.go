// Package artworks serves the museum collection: browsing, QR scans, virtual visits and
// the admin catalogue editor.
package artworks

import (
	"context"
	"fmt"
	"sort"
	"strings"

	pkgerrors "github.com/angelmondragon/mcn-showcase/pkg/errors"
	"github.com/angelmondragon/mcn-showcase/pkg/logger"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	defaultQRSize = 256
	minQRSize     = 64
	maxQRSize     = 1024
	latestCount   = 3
)

var (
	ErrArtworkNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "artwork not found")
	ErrInvalidCode     = pkgerrors.New(pkgerrors.CodeValidation, "invalid QR code")
	ErrUnknownCode     = pkgerrors.New(pkgerrors.CodeNotFound, "no artwork matches this QR code")
)

// Service defines the collection operations used by the public and admin controllers.
type Service interface {
	List(ctx context.Context) []Artwork
	Search(ctx context.Context, query string) []Artwork
	Get(ctx context.Context, id int) (*Artwork, error)
	Resolve(ctx context.Context, code string) (*ScanResult, error)
	QRCode(ctx context.Context, id, size int) ([]byte, error)
	Visit(ctx context.Context, id int) (*Visit, error)

	Create(ctx context.Context, req CreateRequest) (*Artwork, error)
	Update(ctx context.Context, id int, req UpdateRequest) (*Artwork, error)
	Delete(ctx context.Context, id int) error
	ToggleAvailability(ctx context.Context, id int) (*Artwork, error)
	Statistics(ctx context.Context) Statistics
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("artwork repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) List(ctx context.Context) []Artwork {
	return s.repo.all()
}

// Search matches title, artist and category case-insensitively. An empty query lists everything.
func (s *service) Search(ctx context.Context, query string) []Artwork {
	query = strings.ToLower(strings.TrimSpace(query))
	works := s.repo.all()
	if query == "" {
		return works
	}
	out := make([]Artwork, 0, len(works))
	for _, w := range works {
		if strings.Contains(strings.ToLower(w.Title), query) ||
			strings.Contains(strings.ToLower(w.Artist), query) ||
			strings.Contains(strings.ToLower(w.Category), query) {
			out = append(out, w)
		}
	}
	return out
}

func (s *service) Get(ctx context.Context, id int) (*Artwork, error) {
	w, ok := s.repo.find(id)
	if !ok {
		return nil, ErrArtworkNotFound
	}
	return &w, nil
}

// Resolve maps a scanned code to an artwork that is currently on display.
func (s *service) Resolve(ctx context.Context, code string) (*ScanResult, error) {
	id, ok := parseCode(code)
	if !ok {
		return nil, ErrInvalidCode.WithDetails(map[string]string{"code": "must look like QR001"})
	}
	w, found := s.repo.find(id)
	if !found || !w.IsAvailable {
		return nil, ErrUnknownCode
	}
	return &ScanResult{Code: w.QRCode, Artwork: w}, nil
}

// QRCode renders the artwork's scan code as a PNG. size is clamped to a printable range.
func (s *service) QRCode(ctx context.Context, id, size int) ([]byte, error) {
	w, ok := s.repo.find(id)
	if !ok {
		return nil, ErrArtworkNotFound
	}
	switch {
	case size <= 0:
		size = defaultQRSize
	case size < minQRSize:
		size = minQRSize
	case size > maxQRSize:
		size = maxQRSize
	}
	png, err := qrcode.Encode(w.QRCode, qrcode.Medium, size)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render qr code")
	}
	return png, nil
}

func (s *service) Visit(ctx context.Context, id int) (*Visit, error) {
	w, ok := s.repo.find(id)
	if !ok {
		return nil, ErrArtworkNotFound
	}
	return &Visit{Artwork: w, DurationSeconds: VisitDuration}, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Artwork, error) {
	w := s.repo.insert(Artwork{
		Title:       strings.TrimSpace(req.Title),
		Artist:      strings.TrimSpace(req.Artist),
		Year:        strings.TrimSpace(req.Year),
		Category:    strings.TrimSpace(req.Category),
		Room:        strings.TrimSpace(req.Room),
		Description: strings.TrimSpace(req.Description),
		Image:       strings.TrimSpace(req.Image),
		IsAvailable: true,
	})
	ctx = s.logg.WithField(ctx, "artwork_id", w.ID)
	s.logg.Info(ctx, "artwork.created")
	return &w, nil
}

func (s *service) Update(ctx context.Context, id int, req UpdateRequest) (*Artwork, error) {
	w, ok := s.repo.modify(id, req.apply)
	if !ok {
		return nil, ErrArtworkNotFound
	}
	s.logg.Info(s.logg.WithField(ctx, "artwork_id", id), "artwork.updated")
	return &w, nil
}

func (s *service) Delete(ctx context.Context, id int) error {
	if !s.repo.remove(id) {
		return ErrArtworkNotFound
	}
	s.logg.Info(s.logg.WithField(ctx, "artwork_id", id), "artwork.deleted")
	return nil
}

func (s *service) ToggleAvailability(ctx context.Context, id int) (*Artwork, error) {
	w, ok := s.repo.modify(id, func(a Artwork) Artwork {
		a.IsAvailable = !a.IsAvailable
		return a
	})
	if !ok {
		return nil, ErrArtworkNotFound
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"artwork_id": id, "is_available": w.IsAvailable})
	s.logg.Info(ctx, "artwork.availability_toggled")
	return &w, nil
}

// Statistics is computed from the live collection. Latest lists the highest ids first.
func (s *service) Statistics(ctx context.Context) Statistics {
	works := s.repo.all()
	stats := Statistics{
		TotalArtworks: len(works),
		ByCategory:    make(map[string]int),
		ByRoom:        make(map[string]int),
	}
	for _, w := range works {
		if w.IsAvailable {
			stats.AvailableArtworks++
		}
		if w.Category != "" {
			stats.ByCategory[w.Category]++
		}
		if w.Room != "" {
			stats.ByRoom[w.Room]++
		}
	}
	sort.SliceStable(works, func(i, j int) bool { return works[i].ID > works[j].ID })
	if len(works) > latestCount {
		works = works[:latestCount]
	}
	stats.Latest = works
	return stats
}
