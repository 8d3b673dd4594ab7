package lists

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"wanderlist/catalog"
	"wanderlist/models"
	"wanderlist/schema"
	"wanderlist/utils"
)

// ActivityLookup resolves an activity id against the catalog.
type ActivityLookup interface {
	Activity(ctx context.Context, id string) (models.Activity, error)
}

type Handlers struct {
	Registry *Registry
	Catalog  ActivityLookup
}

func (h Handlers) manager(r *http.Request) (*Manager, context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	return h.Registry.For(ctx, utils.GetUserIDFromRequest(r)), ctx, cancel
}

func (h Handlers) GetBucketList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	m, _, cancel := h.manager(r)
	defer cancel()
	utils.RespondWithJSON(w, http.StatusOK, m.BucketList())
}

func (h Handlers) GetVisitedList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	m, _, cancel := h.manager(r)
	defer cancel()
	utils.RespondWithJSON(w, http.StatusOK, m.VisitedList())
}

func (h Handlers) AddToBucketList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.add(w, r, (*Manager).AddToBucketList)
}

func (h Handlers) AddToVisitedList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.add(w, r, (*Manager).AddToVisitedList)
}

func (h Handlers) add(w http.ResponseWriter, r *http.Request, op func(*Manager, context.Context, models.Activity) error) {
	var a models.Activity
	if err := utils.DecodeJSON(w, r, &a); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid activity")
		return
	}
	m, ctx, cancel := h.manager(r)
	defer cancel()

	// A bare id is expanded from the catalog.
	if a.ActivityID != "" && a.ActivityFullName == "" && h.Catalog != nil {
		full, err := h.Catalog.Activity(ctx, a.ActivityID)
		if err != nil {
			respondError(w, err)
			return
		}
		a = full
	}
	if err := op(m, ctx, a); err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, m.Snapshot())
}

func (h Handlers) RemoveFromBucketList(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	m, ctx, cancel := h.manager(r)
	defer cancel()
	if err := m.RemoveFromBucketList(ctx, ps.ByName("id")); err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, m.Snapshot())
}

func (h Handlers) RemoveVisitedActivity(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	m, ctx, cancel := h.manager(r)
	defer cancel()
	if err := m.RemoveVisitedActivity(ctx, ps.ByName("id")); err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, m.Snapshot())
}

func (h Handlers) MoveToVisited(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	m, ctx, cancel := h.manager(r)
	defer cancel()
	if err := m.MoveToVisited(ctx, ps.ByName("id")); err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, m.Snapshot())
}

func (h Handlers) SetRating(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in struct {
		Rating int `json:"rating"`
	}
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid rating")
		return
	}
	m, ctx, cancel := h.manager(r)
	defer cancel()
	if err := m.SetRating(ctx, ps.ByName("id"), in.Rating); err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, m.VisitedList())
}

func (h Handlers) SetNote(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in struct {
		Note string `json:"note"`
	}
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid note")
		return
	}
	m, ctx, cancel := h.manager(r)
	defer cancel()
	if err := m.SetNote(ctx, ps.ByName("id"), in.Note); err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, m.VisitedList())
}

func respondError(w http.ResponseWriter, err error) {
	var verr *schema.ValidationError
	switch {
	case errors.Is(err, ErrUnauthenticated):
		utils.RespondWithError(w, http.StatusUnauthorized, "Sign in to manage your lists")
	case errors.Is(err, ErrInOtherList):
		utils.RespondWithError(w, http.StatusConflict, "Activity is already in your other list")
	case errors.Is(err, ErrNotListed):
		utils.RespondWithError(w, http.StatusNotFound, "Activity is not in this list")
	case errors.Is(err, ErrInvalidRating):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &verr):
		utils.RespondWithError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, catalog.ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Activity not found")
	default:
		log.Error().Err(err).Msg("list operation failed")
		utils.RespondWithError(w, http.StatusBadGateway, "Could not update your lists. Please try again.")
	}
}
