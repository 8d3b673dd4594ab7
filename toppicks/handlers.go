package toppicks

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"wanderlist/utils"
)

// Handler serves GET /api/toppicks. Signed-in users are cached per user;
// anonymous callers share a scope per X-Client-ID header.
func Handler(s *Service) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
		defer cancel()

		userID := utils.GetUserIDFromRequest(r)
		scope := userID
		if scope == "" {
			scope = "anon:" + r.Header.Get("X-Client-ID")
		}

		picks, err := s.TopPicks(ctx, userID, scope)
		if err != nil {
			log.Error().Err(err).Str("scope", scope).Msg("top picks")
			utils.RespondWithError(w, http.StatusBadGateway, "Failed to fetch activities.")
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, picks)
	}
}
