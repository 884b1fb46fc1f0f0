package controllers

import (
	"net/http"

	"github.com/angelmondragon/mcn-showcase/api/responses"
	"github.com/angelmondragon/mcn-showcase/api/validators"
	"github.com/angelmondragon/mcn-showcase/internal/artworks"
	"github.com/angelmondragon/mcn-showcase/pkg/logger"
)

func AdminArtworkList(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			artworksUnavailable(w, r, logg)
			return
		}
		responses.WriteSuccess(w, svc.List(r.Context()))
	}
}

func AdminArtworkCreate(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			artworksUnavailable(w, r, logg)
			return
		}
		var body artworks.CreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		created, err := svc.Create(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func AdminArtworkUpdate(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
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
		var body artworks.UpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		updated, err := svc.Update(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func AdminArtworkDelete(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
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
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func AdminArtworkToggle(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
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
		updated, err := svc.ToggleAvailability(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// AdminStatistics feeds the back-office dashboard.
func AdminStatistics(svc artworks.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			artworksUnavailable(w, r, logg)
			return
		}
		responses.WriteSuccess(w, svc.Statistics(r.Context()))
	}
}
