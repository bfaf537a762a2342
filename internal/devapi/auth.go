package devapi

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessTokenTTL  = 60 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

type ctxKey int

const userKey ctxKey = 0

type authUser struct {
	ID         int    `json:"id"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       string `json:"role"`
	IsActive   bool   `json:"is_active"`
	Phone      string `json:"phone"`
	Department string `json:"department"`
	DateJoined string `json:"date_joined"`
}

type tokenClaims struct {
	UserID    int    `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func (s *Server) issueToken(userID int, tokenType string, ttl time.Duration) (string, error) {
	claims := tokenClaims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func (s *Server) parseToken(raw, wantType string) (int, error) {
	var claims tokenClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !tok.Valid {
		return 0, errors.New("invalid token")
	}
	if claims.TokenType != wantType {
		return 0, errors.New("wrong token type")
	}
	return claims.UserID, nil
}

func (s *Server) userByID(id int) (*authUser, error) {
	var u authUser
	var active int
	err := s.db.QueryRow(
		`SELECT id, email, first_name, last_name, role, is_active, phone, department, date_joined
		 FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.Role, &active, &u.Phone, &u.Department, &u.DateJoined)
	if err != nil {
		return nil, err
	}
	u.IsActive = active != 0
	return &u, nil
}

// handleToken implements POST /token/: credentials in, access+refresh pair out.
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if fe := requireFields(map[string]string{"email": req.Email, "password": req.Password}); len(fe) > 0 {
		writeFieldErrors(w, fe)
		return
	}

	var id int
	var hash string
	err := s.db.QueryRow(`SELECT id, password_hash FROM users WHERE email = ?`, req.Email).Scan(&id, &hash)
	if err == sql.ErrNoRows || (err == nil && bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil) {
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}

	access, err := s.issueToken(id, "access", accessTokenTTL)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	refresh, err := s.issueToken(id, "refresh", refreshTokenTTL)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access, "refresh": refresh})
}

// handleTokenRefresh implements POST /token/refresh/.
func (s *Server) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	id, err := s.parseToken(req.Refresh, "refresh")
	if err != nil {
		writeDetail(w, http.StatusUnauthorized, "Token is invalid or expired")
		return
	}
	access, err := s.issueToken(id, "access", accessTokenTTL)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	refresh, err := s.issueToken(id, "refresh", refreshTokenTTL)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access, "refresh": refresh})
}

// handleSignup implements POST /users/signup/.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Role      string `json:"role"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if fe := requireFields(map[string]string{"email": req.Email, "password": req.Password}); len(fe) > 0 {
		writeFieldErrors(w, fe)
		return
	}
	if req.Role == "" {
		req.Role = "agent"
	}

	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users WHERE email = ?`, req.Email).Scan(&exists); err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	if exists > 0 {
		writeFieldErrors(w, map[string][]string{"email": {"user with this email already exists."}})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "could not hash password")
		return
	}
	res, err := s.db.Exec(
		`INSERT INTO users (email, password_hash, first_name, last_name, role, is_active, date_joined)
		 VALUES (?, ?, ?, ?, ?, 1, ?)`,
		req.Email, string(hash), req.FirstName, req.LastName, req.Role, now())
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	id, _ := res.LastInsertId()
	u, err := s.userByID(int(id))
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// requireAuth validates the bearer token and stores the user in the
// request context. All /api routes except the token and signup
// endpoints pass through here.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
			return
		}
		id, err := s.parseToken(strings.TrimPrefix(auth, "Bearer "), "access")
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Given token not valid for any token type")
			return
		}
		u, err := s.userByID(id)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "User not found")
			return
		}
		if !u.IsActive {
			writeDetail(w, http.StatusUnauthorized, "User account is disabled")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	})
}

func currentUser(r *http.Request) *authUser {
	u, _ := r.Context().Value(userKey).(*authUser)
	return u
}
