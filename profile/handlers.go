package profile

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"wanderlist/utils"
)

const maxIconBytes = 10 << 20

type Handlers struct {
	Service *Service
}

func (h Handlers) GetProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, err := h.Service.Get(ctx, utils.GetUserIDFromRequest(r))
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (h Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		DisplayName string `json:"displayName"`
	}
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, err := h.Service.UpdateProfile(ctx, utils.GetUserIDFromRequest(r), body.DisplayName)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

func (h Handlers) SetPreferences(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var body struct {
		Preferences []string `json:"preferences"`
	}
	if err := utils.DecodeJSON(w, r, &body); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, err := h.Service.SetPreferences(ctx, utils.GetUserIDFromRequest(r), body.Preferences)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

// UploadIcon accepts a multipart "icon" file.
func (h Handlers) UploadIcon(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	r.Body = http.MaxBytesReader(w, r.Body, maxIconBytes)
	if err := r.ParseMultipartForm(maxIconBytes); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Unable to parse form")
		return
	}
	file, header, err := r.FormFile("icon")
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Missing icon file")
		return
	}
	defer file.Close()

	if !utils.ValidateImageFileType(header) {
		utils.RespondWithError(w, http.StatusUnsupportedMediaType, "Unsupported image type")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 20*time.Second)
	defer cancel()

	p, err := h.Service.SaveIcon(ctx, utils.GetUserIDFromRequest(r), file)
	if err != nil {
		respondError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, p)
}

func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidDisplayName), errors.Is(err, ErrTooManyPreferences), errors.Is(err, ErrInvalidImage):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Msg("profile")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to update profile")
	}
}
