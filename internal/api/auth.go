package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"rxdesk/m/domain"
	"rxdesk/m/internal/store"
)

const (
	tokenIssuer = "rxdesk"
	tokenTTL    = 12 * time.Hour
)

// staff is the authenticated caller carried in the request context.
type staff struct {
	ID   int64
	Role string
}

type staffClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (h *Handler) issueToken(s staff) (string, error) {
	now := time.Now()
	claims := staffClaims{
		Role: s.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(s.ID, 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.secret))
}

func (h *Handler) parseToken(raw string) (staff, error) {
	var claims staffClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte(h.secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	if err != nil {
		return staff{}, err
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || claims.Role == "" {
		return staff{}, errors.New("token has no staff identity")
	}
	return staff{ID: id, Role: claims.Role}, nil
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		caller, err := h.parseToken(raw)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxStaff, caller)))
	})
}

func staffFrom(ctx context.Context) (staff, bool) {
	s, ok := ctx.Value(ctxStaff).(staff)
	return s, ok
}

// requireRole admits callers whose role is listed. It runs after authMiddleware.
func requireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := staffFrom(r.Context())
			if !ok {
				respondError(w, http.StatusUnauthorized, "missing role")
				return
			}
			for _, role := range roles {
				if caller.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondError(w, http.StatusForbidden, "insufficient permissions")
		})
	}
}

// registerRequest creates a staff account. Role defaults to employee and is
// ignored for the first account, which is always the owner.
type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=owner employee"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// register opens the first account to anyone and makes it the owner. Every
// later account must be created by an owner.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var (
		caller staff
		authed bool
	)
	if raw, ok := bearerToken(r); ok {
		var err error
		if caller, err = h.parseToken(raw); err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if caller.Role != domain.RoleOwner {
			respondError(w, http.StatusForbidden, "only owners can add staff")
			return
		}
		authed = true
	}

	var req registerRequest
	if !h.bind(w, r, &req) {
		return
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}

	u := domain.User{Username: req.Username, Email: req.Email, Role: req.Role}
	if u.Role == "" {
		u.Role = domain.RoleEmployee
	}
	var user domain.User
	if authed {
		user, err = h.store.CreateUser(r.Context(), u, string(hashed))
	} else {
		user, err = h.store.CreateFirstOwner(r.Context(), u, string(hashed))
	}
	switch {
	case errors.Is(err, store.ErrEmailTaken):
		respondError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, store.ErrRegistrationClosed):
		respondError(w, http.StatusForbidden, err.Error())
		return
	case err != nil:
		h.log.Error().Err(err).Msg("register staff")
		respondError(w, http.StatusInternalServerError, "unable to complete registration")
		return
	}
	if authed {
		h.log.Info().Int64("by", caller.ID).Int64("user_id", user.ID).Str("role", user.Role).Msg("staff account created")
	}
	h.respondWithToken(w, http.StatusCreated, user)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.bind(w, r, &req) {
		return
	}
	user, err := h.store.UserByEmail(r.Context(), req.Email)
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	user.Password = ""
	h.respondWithToken(w, http.StatusOK, user)
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !h.bind(w, r, &req) {
		return
	}
	caller, _ := staffFrom(r.Context())
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to secure password")
		return
	}
	if err := h.store.SetPassword(r.Context(), caller.ID, string(hashed)); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to update password")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "password updated"})
}

func (h *Handler) respondWithToken(w http.ResponseWriter, status int, user domain.User) {
	token, err := h.issueToken(staff{ID: user.ID, Role: user.Role})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to generate token")
		return
	}
	respondJSON(w, status, authResponse{Token: token, User: user})
}
