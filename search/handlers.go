package search

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"wanderlist/utils"
)

type Handlers struct {
	Suggester *Suggester
}

// Suggest serves GET /api/search/suggest?q=.
func (h Handlers) Suggest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.run(w, r, h.Suggester.Suggest)
}

// Search serves GET /api/search?q=.
func (h Handlers) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.run(w, r, h.Suggester.Search)
}

func (h Handlers) run(w http.ResponseWriter, r *http.Request, fn SuggestFunc) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query().Get("q")
	results, err := fn(ctx, q)
	if err != nil {
		log.Error().Err(err).Str("q", q).Msg("search")
		utils.RespondWithError(w, http.StatusBadGateway, "Search is unavailable right now.")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, results)
}
