package auth

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	"wanderlist/middleware"
	"wanderlist/utils"
)

type Handlers struct {
	Service *Service
}

type credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

func (h Handlers) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in credentials
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	sess, err := h.Service.Register(r.Context(), in.Email, in.Password, in.DisplayName)
	if err != nil {
		respondAuthError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, sess)
}

func (h Handlers) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in credentials
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if in.Email == "" || in.Password == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Email and password are required")
		return
	}
	sess, err := h.Service.SignIn(r.Context(), in.Email, in.Password)
	if err != nil {
		respondAuthError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, sess)
}

func (h Handlers) Provider(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var in struct {
		Credential string `json:"credential"`
	}
	if err := utils.DecodeJSON(w, r, &in); err != nil || in.Credential == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	sess, err := h.Service.SignInWithProvider(r.Context(), ps.ByName("name"), in.Credential)
	if err != nil {
		respondAuthError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, sess)
}

func (h Handlers) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	token := middleware.BearerToken(r)
	if token == "" {
		utils.RespondWithError(w, http.StatusUnauthorized, "No token provided")
		return
	}
	if err := h.Service.SignOut(token); err != nil {
		respondAuthError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Logged out successfully"})
}

func respondAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidEmail), errors.Is(err, ErrWeakPassword):
		utils.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrEmailTaken):
		utils.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ErrUnknownProvider):
		utils.RespondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken):
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid email or password")
	default:
		log.Error().Err(err).Msg("auth request failed")
		utils.RespondWithError(w, http.StatusInternalServerError, "Authentication is unavailable")
	}
}
