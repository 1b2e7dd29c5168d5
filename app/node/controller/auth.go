package controller

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4/json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/suretyx/suretyx/pkg/rpc"
	"github.com/suretyx/suretyx/pkg/surety"
	"golang.org/x/crypto/bcrypt"
)

// callerHandler is an action handler that already knows who is acting.
type callerHandler func(w http.ResponseWriter, r *http.Request, caller surety.ParticipantID)

// RequireCaller extracts the authenticated participant from the bearer
// token. The token is the substrate's authentication artifact: its subject
// IS the participant identifier.
func (c *Controller) RequireCaller(next callerHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := c.callerFrom(r)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r, caller)
	})
}

func (c *Controller) callerFrom(r *http.Request) (surety.ParticipantID, bool) {
	raw := ""
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		raw = strings.TrimPrefix(authHeader, "Bearer ")
	} else if cookie, err := r.Cookie("sx_session"); err == nil {
		// Owner session issued by HandleOwnerLogin.
		raw = cookie.Value
	}
	if raw == "" {
		return "", false
	}
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) { return c.App.JWTSecret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !tok.Valid {
		return "", false
	}
	sub, err := tok.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return surety.ParticipantID(sub), true
}

// HandleMintToken issues a participant bearer token. This endpoint stands
// in for the execution substrate's caller authentication and carries no
// proof of identity; deployments front it with their real identity layer.
func (c *Controller) HandleMintToken(w http.ResponseWriter, r *http.Request) {
	var in rpc.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Participant == "" {
		badRequest(w, "participant is required")
		return
	}

	ttl := 24 * time.Hour
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": in.Participant,
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	})
	ss, err := token.SignedString(c.App.JWTSecret)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to sign token"})
		return
	}
	writeJSON(w, http.StatusOK, rpc.TokenResponse{Token: ss})
}

// HandleOwnerLogin authenticates the platform owner and issues a session
// cookie whose subject is the owner participant id.
func (c *Controller) HandleOwnerLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		badRequest(w, "bad json")
		return
	}
	if err := bcrypt.CompareHashAndPassword(c.App.OwnerHash, []byte(in.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}
	c.issueSession(w)
	writeJSON(w, http.StatusOK, map[string]string{"ok": "1"})
}

// HandleOwnerLogout clears the owner session.
func (c *Controller) HandleOwnerLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "sx_session",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
	w.WriteHeader(http.StatusNoContent)
}

func (c *Controller) issueSession(w http.ResponseWriter) {
	ttl := 8 * time.Hour
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": string(c.App.OwnerID),
		"exp": time.Now().Add(ttl).Unix(),
		"iat": time.Now().Unix(),
	})
	ss, _ := token.SignedString(c.App.JWTSecret)
	http.SetCookie(w, &http.Cookie{
		Name:     "sx_session",
		Value:    ss,
		Path:     "/",
		HttpOnly: true,
		Secure:   os.Getenv("ENVIRONMENT") == "production",
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(ttl.Seconds()),
	})
}
