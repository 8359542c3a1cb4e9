package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/imagehost/backend/internal/errors"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

const refreshCookieName = "refreshToken"

type RegisterRequest struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type Handlers struct {
	service    *Service
	refreshTTL time.Duration
	production bool
}

func NewHandlers(service *Service, refreshTTL time.Duration, production bool) *Handlers {
	if refreshTTL <= 0 {
		refreshTTL = DefaultRefreshTTL
	}
	return &Handlers{service: service, refreshTTL: refreshTTL, production: production}
}

// Register handles POST /api/auth/register.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) error {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}

	if err := validateRegisterRequest(&req); err != nil {
		return apperrors.ValidationError(err.Error())
	}

	user, err := h.service.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			return apperrors.UserExists()
		}
		return err
	}

	requestID := apperrors.GetRequestID(r.Context())
	apperrors.WriteData(w, requestID, http.StatusCreated, map[string]any{"user": user})
	return nil
}

// Login handles POST /api/auth/login. The refresh token travels only in an
// http-only strict-same-site cookie; the body carries the access token.
// Unknown email and wrong password produce the same failure.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) error {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return apperrors.BadRequest("invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return apperrors.ValidationError("email and password are required")
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrInvalidCredentials) {
			return apperrors.AuthFailed()
		}
		return err
	}

	h.setRefreshCookie(w, result.Tokens.RefreshToken)

	requestID := apperrors.GetRequestID(r.Context())
	apperrors.WriteData(w, requestID, http.StatusOK, map[string]any{
		"user": result.User,
		"tokens": map[string]string{
			"accessToken": result.Tokens.AccessToken,
		},
	})
	return nil
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so logout
// only clears the transport cookie; the client discards its access token.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) error {
	h.clearRefreshCookie(w)

	requestID := apperrors.GetRequestID(r.Context())
	apperrors.WriteData(w, requestID, http.StatusOK, map[string]any{"message": "logged out successfully"})
	return nil
}

// Refresh handles POST /api/auth/refresh. The refresh token is read from
// the cookie, falling back to the body for non-browser clients.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) error {
	refreshToken := ""
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		refreshToken = cookie.Value
	}
	if refreshToken == "" {
		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			refreshToken = req.RefreshToken
		}
	}
	if refreshToken == "" {
		return apperrors.NoRefreshToken()
	}

	accessToken, err := h.service.RefreshAccessToken(refreshToken)
	if err != nil {
		return apperrors.InvalidRefreshToken()
	}

	requestID := apperrors.GetRequestID(r.Context())
	apperrors.WriteData(w, requestID, http.StatusOK, map[string]string{"accessToken": accessToken})
	return nil
}

// Me handles GET /api/auth/me.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) error {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		return apperrors.Unauthorized("not authenticated")
	}

	user, err := h.service.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return apperrors.UserNotFound()
		}
		return err
	}

	requestID := apperrors.GetRequestID(r.Context())
	apperrors.WriteData(w, requestID, http.StatusOK, map[string]any{"user": user})
	return nil
}

// Profile handles GET /api/auth/profile/{userId}.
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) error {
	userID, err := uuid.Parse(r.PathValue("userId"))
	if err != nil {
		return apperrors.ValidationError("invalid user id")
	}

	profile, err := h.service.GetUserProfile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return apperrors.UserNotFound()
		}
		return err
	}

	requestID := apperrors.GetRequestID(r.Context())
	apperrors.WriteData(w, requestID, http.StatusOK, map[string]any{"profile": profile})
	return nil
}

// UpdateProfile handles PUT /api/auth/profile. Only bio and profileImage
// are decoded; any other field in the payload is ignored.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) error {
	identity := IdentityFromContext(r.Context())
	if identity == nil {
		return apperrors.Unauthorized("not authenticated")
	}

	var input UpdateProfileInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		return apperrors.BadRequest("invalid request body")
	}

	user, err := h.service.UpdateProfile(r.Context(), identity.UserID, input)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return apperrors.UserNotFound()
		}
		return err
	}

	requestID := apperrors.GetRequestID(r.Context())
	apperrors.WriteData(w, requestID, http.StatusOK, map[string]any{"user": user})
	return nil
}

func (h *Handlers) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/api/auth",
		MaxAge:   int(h.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handlers) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/api/auth",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.production,
		SameSite: http.SameSiteStrictMode,
	})
}

func validateRegisterRequest(req *RegisterRequest) error {
	if req.Username == "" {
		return errors.New("username is required")
	}
	if len(req.Username) < 3 {
		return errors.New("username must be at least 3 characters")
	}
	if len(req.Username) > 50 {
		return errors.New("username must be at most 50 characters")
	}
	if req.Email == "" {
		return errors.New("email is required")
	}
	if !emailRegex.MatchString(req.Email) {
		return errors.New("invalid email format")
	}
	if req.Password == "" {
		return errors.New("password is required")
	}
	if len(req.Password) < 6 {
		return errors.New("password must be at least 6 characters")
	}
	if req.Password != req.ConfirmPassword {
		return errors.New("passwords do not match")
	}
	return nil
}
