package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/mcn-showcase/api/responses"
	"github.com/angelmondragon/mcn-showcase/api/validators"
	"github.com/angelmondragon/mcn-showcase/internal/artworks"
	pkgerrors "github.com/angelmondragon/mcn-showcase/pkg/errors"
	"github.com/angelmondragon/mcn-showcase/pkg/logger"
)

const (
	maxSearchLen = 120
	maxQRSize    = 1024
)

// ScanRequest is the payload posted by the QR scanner page.
type ScanRequest struct {
	Code string `json:"code" validate:"required,max=16"`
}

func artworksUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "artwork service unavailable"))
}

func artworkIDFromPath(r *http.Request) (int, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "artworkId"))
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid artwork id").WithDetails(map[string]string{"artwork_id": "must be a positive integer"})
	}
	return id, nil
}

// ArtworkList returns the collection, filtered by ?q= when present.
func ArtworkList(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			artworksUnavailable(w, r, logg)
			return
		}
		query := validators.SanitizeString(r.URL.Query().Get("q"), maxSearchLen)
		responses.WriteSuccess(w, svc.Search(r.Context(), query))
	}
}

func ArtworkDetail(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			artworksUnavailable(w, r, logg)
			return
		}
		id, err := artworkIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		artwork, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, artwork)
	}
}

// ArtworkQRCode renders the printable PNG for an artwork. ?size= is in pixels.
func ArtworkQRCode(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			artworksUnavailable(w, r, logg)
			return
		}
		id, err := artworkIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		size, err := validators.ParseQueryInt(r, "size", 0, 0, maxQRSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		png, err := svc.QRCode(r.Context(), id, size)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set("Cache-Control", "public, max-age=3600")
		responses.WriteBinary(w, "image/png", png)
	}
}

func ArtworkVisit(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			artworksUnavailable(w, r, logg)
			return
		}
		id, err := artworkIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		visit, err := svc.Visit(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, visit)
	}
}

// ArtworkScan resolves a scanned QR code to an artwork on display.
func ArtworkScan(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			artworksUnavailable(w, r, logg)
			return
		}
		var body ScanRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Resolve(r.Context(), body.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
