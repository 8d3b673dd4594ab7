package maps

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"wanderlist/utils"
)

// GeocodeHandler serves GET /api/geocode?city=&country=.
func GeocodeHandler(g Geocoder) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		city := r.URL.Query().Get("city")
		country := r.URL.Query().Get("country")
		if city == "" && country == "" {
			utils.RespondWithError(w, http.StatusBadRequest, "city or country is required")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		loc, ok := g.Geocode(ctx, city, country)
		if !ok {
			utils.RespondWithJSON(w, http.StatusOK, utils.M{"found": false})
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"found": true, "lat": loc.Lat, "lng": loc.Lng})
	}
}
