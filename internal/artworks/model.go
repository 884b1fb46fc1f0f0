package artworks

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	codePrefix = "QR"
	// VisitDuration is the length of a virtual visit in seconds.
	VisitDuration = 300
)

// Artwork is one piece of the museum collection.
type Artwork struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Year        string `json:"year,omitempty"`
	Category    string `json:"category"`
	Room        string `json:"room,omitempty"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	IsAvailable bool   `json:"is_available"`
	QRCode      string `json:"qr_code"`
}

// CodeFor returns the scan code printed next to an artwork, e.g. QR007.
func CodeFor(id int) string {
	return fmt.Sprintf("%s%03d", codePrefix, id)
}

// parseCode extracts the artwork id from a scan code.
func parseCode(code string) (int, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	digits, ok := strings.CutPrefix(code, codePrefix)
	if !ok || len(digits) < 3 {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.Atoi(digits)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// CreateRequest is the admin payload for a new artwork.
type CreateRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Artist      string `json:"artist" validate:"required,max=200"`
	Year        string `json:"year,omitempty" validate:"max=40"`
	Category    string `json:"category" validate:"required,max=80"`
	Room        string `json:"room,omitempty" validate:"max=120"`
	Description string `json:"description,omitempty" validate:"max=4000"`
	Image       string `json:"image,omitempty" validate:"omitempty,url"`
}

// UpdateRequest merges the provided fields into an artwork.
type UpdateRequest struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Artist      *string `json:"artist,omitempty" validate:"omitempty,min=1,max=200"`
	Year        *string `json:"year,omitempty" validate:"omitempty,max=40"`
	Category    *string `json:"category,omitempty" validate:"omitempty,min=1,max=80"`
	Room        *string `json:"room,omitempty" validate:"omitempty,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=4000"`
	Image       *string `json:"image,omitempty" validate:"omitempty,url"`
	IsAvailable *bool   `json:"is_available,omitempty"`
}

func (u UpdateRequest) apply(a Artwork) Artwork {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&a.Title, u.Title)
	set(&a.Artist, u.Artist)
	set(&a.Year, u.Year)
	set(&a.Category, u.Category)
	set(&a.Room, u.Room)
	set(&a.Description, u.Description)
	set(&a.Image, u.Image)
	if u.IsAvailable != nil {
		a.IsAvailable = *u.IsAvailable
	}
	return a
}

// ScanResult is returned when a scanned code resolves to an artwork.
type ScanResult struct {
	Code    string  `json:"code"`
	Artwork Artwork `json:"artwork"`
}

// Visit is the metadata of a virtual visit.
type Visit struct {
	Artwork         Artwork `json:"artwork"`
	DurationSeconds int     `json:"duration_seconds"`
}

// Statistics summarizes the collection for the admin dashboard.
type Statistics struct {
	TotalArtworks     int            `json:"total_artworks"`
	AvailableArtworks int            `json:"available_artworks"`
	ByCategory        map[string]int `json:"by_category"`
	ByRoom            map[string]int `json:"by_room"`
	Latest            []Artwork      `json:"latest"`
}
