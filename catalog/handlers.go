package catalog

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"wanderlist/store"
	"wanderlist/utils"
)

type Handlers struct {
	Catalog *Catalog
}

// ListActivities serves GET /api/activities?cursor=&limit=.
func (h Handlers) ListActivities(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	limit := utils.QueryInt(r, "limit", h.Catalog.pageSize, 500)
	items, next, err := h.Catalog.Page(ctx, r.URL.Query().Get("cursor"), limit)
	if errors.Is(err, store.ErrBadCursor) {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid cursor")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("list activities")
		utils.RespondWithError(w, http.StatusBadGateway, "Failed to fetch activities.")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"activities": items, "nextCursor": next})
}

func (h Handlers) GetActivity(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	a, err := h.Catalog.Activity(ctx, ps.ByName("id"))
	respond(w, a, err)
}

func (h Handlers) GetAttraction(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	a, err := h.Catalog.Attraction(ctx, ps.ByName("id"))
	respond(w, a, err)
}

func respond(w http.ResponseWriter, v any, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Not found")
	case err != nil:
		log.Error().Err(err).Msg("catalog read")
		utils.RespondWithError(w, http.StatusBadGateway, "Failed to fetch catalog data.")
	default:
		utils.RespondWithJSON(w, http.StatusOK, v)
	}
}
