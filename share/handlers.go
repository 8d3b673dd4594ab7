package share

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"wanderlist/catalog"
	"wanderlist/lists"
	"wanderlist/utils"
)

type Handlers struct {
	Catalog   lists.ActivityLookup
	Registry  *lists.Registry
	PublicURL string
}

// ActivityQR serves GET /api/share/:id/qr?size= as a PNG.
func (h Handlers) ActivityQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := ps.ByName("id")
	if _, err := h.Catalog.Activity(ctx, id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			utils.RespondWithError(w, http.StatusNotFound, "Activity not found")
			return
		}
		log.Error().Err(err).Str("activity", id).Msg("share lookup")
		utils.RespondWithError(w, http.StatusBadGateway, "Failed to fetch activity")
		return
	}

	png, err := QRCode(ActivityURL(h.PublicURL, id), utils.QueryInt(r, "size", DefaultQRSize, maxQRSize))
	if err != nil {
		log.Error().Err(err).Msg("share qr")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

// ExportBucketList serves GET /api/lists/bucket/export as a PDF download.
func (h Handlers) ExportBucketList(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	m := h.Registry.For(ctx, utils.GetUserIDFromRequest(r))
	doc, err := BucketListPDF(h.PublicURL, m.BucketList(), time.Now())
	if err != nil {
		log.Error().Err(err).Str("user", m.UserID()).Msg("bucket list export")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=bucket-list.pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}
