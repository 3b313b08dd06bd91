// Package auth gates the dashboard behind Google OAuth for agency
// staff. Sessions live in memory; a restart simply asks everyone to
// sign in again.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ignite/agency-pulse/internal/config"
	"github.com/ignite/agency-pulse/internal/pkg/httputil"
)

const userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// googleUser is the profile Google returns for an authorized token.
type googleUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	HD            string `json:"hd"` // hosted Workspace domain
}

// Session is one signed-in agency user.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Manager runs the OAuth flow and keeps the session table.
type Manager struct {
	cfg    config.AuthConfig
	oauth  *oauth2.Config
	client *http.Client

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager builds the OAuth config against Google's endpoint. baseURL
// is the externally visible origin used for the callback redirect.
func NewManager(cfg config.AuthConfig, baseURL string) *Manager {
	return &Manager{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  baseURL + "/auth/callback",
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		client:   &http.Client{Timeout: 10 * time.Second},
		sessions: make(map[string]*Session),
	}
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// HandleLogin starts the OAuth flow, pinning a state nonce in a
// short-lived cookie.
func (m *Manager) HandleLogin(w http.ResponseWriter, r *http.Request) {
	state, err := randomToken()
	if err != nil {
		http.Error(w, "failed to generate state", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	url := m.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
	if m.cfg.AllowedDomain != "" {
		url += "&hd=" + m.cfg.AllowedDomain
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// HandleCallback finishes the flow: verify state, exchange the code,
// check the Workspace domain, mint a session.
func (m *Manager) HandleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || r.URL.Query().Get("state") != stateCookie.Value {
		log.Printf("Auth: state verification failed")
		http.Redirect(w, r, "/?error=invalid_state", http.StatusTemporaryRedirect)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: "", Path: "/", MaxAge: -1})

	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		log.Printf("Auth: Google returned error: %s", errMsg)
		http.Redirect(w, r, "/?error="+errMsg, http.StatusTemporaryRedirect)
		return
	}

	token, err := m.oauth.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.Printf("Auth: code exchange failed: %v", err)
		http.Redirect(w, r, "/?error=exchange_failed", http.StatusTemporaryRedirect)
		return
	}

	user, err := m.fetchUser(r.Context(), token.AccessToken)
	if err != nil {
		log.Printf("Auth: failed to fetch user profile: %v", err)
		http.Redirect(w, r, "/?error=userinfo_failed", http.StatusTemporaryRedirect)
		return
	}

	if m.cfg.AllowedDomain != "" && !strings.HasSuffix(user.Email, "@"+m.cfg.AllowedDomain) {
		log.Printf("Auth: domain not allowed for %s (want %s)", user.Email, m.cfg.AllowedDomain)
		http.Redirect(w, r, "/?error=domain_not_allowed", http.StatusTemporaryRedirect)
		return
	}

	sessionID, err := randomToken()
	if err != nil {
		http.Redirect(w, r, "/?error=session_failed", http.StatusTemporaryRedirect)
		return
	}

	now := time.Now()
	m.mu.Lock()
	m.sessions[sessionID] = &Session{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Picture:   user.Picture,
		CreatedAt: now,
		ExpiresAt: now.Add(time.Duration(m.cfg.CookieMaxAge) * time.Second),
	}
	m.mu.Unlock()

	log.Printf("Auth: user signed in: %s", user.Email)

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    sessionID,
		Path:     "/",
		MaxAge:   m.cfg.CookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// HandleLogout drops the session and clears the cookie.
func (m *Manager) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(m.cfg.CookieName); err == nil {
		m.mu.Lock()
		delete(m.sessions, cookie.Value)
		m.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: m.cfg.CookieName, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// HandleMe reports the signed-in user, or authenticated=false.
func (m *Manager) HandleMe(w http.ResponseWriter, r *http.Request) {
	session := m.GetSession(r)
	if session == nil {
		httputil.JSON(w, http.StatusUnauthorized, map[string]any{"authenticated": false})
		return
	}
	httputil.OK(w, map[string]any{
		"authenticated": true,
		"user":          session,
	})
}

// GetSession returns the request's live session, expiring it lazily.
func (m *Manager) GetSession(r *http.Request) *Session {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return nil
	}

	m.mu.RLock()
	session, ok := m.sessions[cookie.Value]
	m.mu.RUnlock()
	if !ok {
		return nil
	}

	if time.Now().After(session.ExpiresAt) {
		m.mu.Lock()
		delete(m.sessions, cookie.Value)
		m.mu.Unlock()
		return nil
	}
	return session
}

// Middleware enforces a session on /api/ routes. Auth endpoints and
// /health stay open; everything else passes through so the frontend
// can render its own login screen. Disabled auth is a no-op.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/auth/") || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		if m.GetSession(r) == nil && strings.HasPrefix(r.URL.Path, "/api/") {
			httputil.Unauthorized(w, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// StartSessionCleanup sweeps expired sessions every five minutes until
// the context ends.
func (m *Manager) StartSessionCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := time.Now()
				m.mu.Lock()
				for id, s := range m.sessions {
					if now.After(s.ExpiresAt) {
						delete(m.sessions, id)
					}
				}
				m.mu.Unlock()
			}
		}
	}()
}

// fetchUser pulls the user's Google profile with the access token.
func (m *Manager) fetchUser(ctx context.Context, accessToken string) (*googleUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get user info: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google API error: %s", string(body))
	}

	var user googleUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user info: %w", err)
	}
	return &user, nil
}
