package routes_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobboard/internal/api/handlers"
	"github.com/yoockh/jobboard/internal/api/middleware"
	"github.com/yoockh/jobboard/internal/api/routes"
	"github.com/yoockh/jobboard/internal/auth"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/services"
	"github.com/yoockh/jobboard/internal/testutil"
	"github.com/yoockh/jobboard/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type server struct {
	t *testing.T
	h http.Handler
}

func newServer(t *testing.T) *server {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	iss, err := auth.NewIssuer(auth.IssuerConfig{AccessSecret: "test-secret", AccessTTL: 15 * time.Minute, RefreshTTL: time.Hour})
	if err != nil {
		t.Fatal(err)
	}
	repos := pgrepo.New(testutil.OpenSQLite(t))
	authSvc := services.NewAuthService(repos, iss, auth.NewStore(testutil.NewFakeCache()), 0, log)
	apps := services.NewApplicationService(repos, nil, nil, log)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))
	routes.RegisterRoutes(r, routes.Deps{
		Auth:         authSvc,
		AuthH:        handlers.NewAuthHandler(authSvc, true),
		Users:        handlers.NewUserHandler(services.NewUserService(repos), authSvc, apps),
		Companies:    handlers.NewCompanyHandler(services.NewCompanyService(repos)),
		Jobs:         handlers.NewJobHandler(services.NewJobService(repos), apps),
		Applications: handlers.NewApplicationHandler(apps, services.NewResumeService(repos.Users, nil)),
		SavedJobs:    handlers.NewSavedJobHandler(services.NewSavedJobService(repos)),
	})
	return &server{t: t, h: r}
}

func (s *server) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			s.t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, req)
	if strings.Contains(w.Body.String(), "password_hash") {
		s.t.Fatalf("%s %s leaked password_hash: %s", method, path, w.Body.String())
	}
	return w
}

func (s *server) expect(w *httptest.ResponseRecorder, status int) {
	s.t.Helper()
	if w.Code != status {
		s.t.Fatalf("status = %d, want %d; body: %s", w.Code, status, w.Body.String())
	}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

type session struct {
	id      uint
	access  string
	refresh string
}

func (s *server) register(username string, recruiter bool) session {
	s.t.Helper()
	w := s.do(http.MethodPost, "/auth/register", "", map[string]any{
		"username":     username,
		"email":        username + "@example.test",
		"password":     "secret123",
		"is_recruiter": recruiter,
	})
	s.expect(w, http.StatusCreated)
	res := decode[services.AuthResult](s.t, w)
	return session{id: res.User.ID, access: res.AccessToken, refresh: res.RefreshToken}
}

func idPath(prefix string, id uint) string {
	return prefix + "/" + strconv.FormatUint(uint64(id), 10)
}

func TestJobBoardFlow(t *testing.T) {
	s := newServer(t)

	rec := s.register("rita", true)
	w := s.do(http.MethodPost, "/companies", rec.access, map[string]any{"name": "Acme", "location": "Jakarta"})
	s.expect(w, http.StatusCreated)

	w = s.do(http.MethodPost, "/jobs", rec.access, map[string]any{
		"title":        "Backend Engineer",
		"description":  "Go services",
		"recruiter_id": rec.id,
		"skills":       []string{"go", "sql"},
	})
	s.expect(w, http.StatusCreated)
	job := decode[map[string]any](t, w)
	jobID := uint(job["id"].(float64))

	seeker := s.register("sara", false)
	w = s.do(http.MethodPost, "/applications", seeker.access, map[string]any{
		"user_id":           seeker.id,
		"job_id":            jobID,
		"cover_letter_text": "hire me",
	})
	s.expect(w, http.StatusCreated)

	w = s.do(http.MethodPost, "/applications", seeker.access, map[string]any{"job_id": jobID})
	s.expect(w, http.StatusConflict)
	if body := decode[handlers.APIError](t, w); body.Code != utils.CodeConflict {
		t.Fatalf("error body = %+v", body)
	}

	w = s.do(http.MethodGet, "/applications?user_id="+strconv.Itoa(int(seeker.id))+"&_expand=job", seeker.access, nil)
	s.expect(w, http.StatusOK)
	if w.Header().Get("X-Total-Count") != "1" {
		t.Fatalf("X-Total-Count = %q", w.Header().Get("X-Total-Count"))
	}
	apps := decode[[]map[string]any](t, w)
	if len(apps) != 1 {
		t.Fatalf("got %d applications", len(apps))
	}
	expanded, _ := apps[0]["job"].(map[string]any)
	if expanded["title"] != "Backend Engineer" {
		t.Fatalf("expanded job = %v", apps[0]["job"])
	}
	appID := uint(apps[0]["id"].(float64))

	w = s.do(http.MethodGet, "/applications?_expand=applicant", rec.access, nil)
	s.expect(w, http.StatusOK)
	apps = decode[[]map[string]any](t, w)
	if len(apps) != 1 || apps[0]["applicant"] == nil {
		t.Fatalf("recruiter listing = %v", apps)
	}

	w = s.do(http.MethodPatch, idPath("/applications", appID)+"/status", rec.access, map[string]any{"status": "accepted"})
	s.expect(w, http.StatusOK)
	if got := decode[map[string]any](t, w); got["status"] != "accepted" {
		t.Fatalf("status = %v", got["status"])
	}

	w = s.do(http.MethodDelete, idPath("/jobs", jobID), rec.access, nil)
	s.expect(w, http.StatusNoContent)
}

func TestAuthFailures(t *testing.T) {
	s := newServer(t)
	sess := s.register("alice", false)

	w := s.do(http.MethodPost, "/auth/login", "", map[string]any{"email": "alice@example.test", "password": "wrong-password"})
	s.expect(w, http.StatusUnauthorized)
	if body := decode[handlers.APIError](t, w); body.Message != "invalid credentials" {
		t.Fatalf("message = %q", body.Message)
	}

	w = s.do(http.MethodPost, "/auth/login", "", map[string]any{"username": "alice", "password": "secret123"})
	s.expect(w, http.StatusOK)

	s.expect(s.do(http.MethodGet, "/auth/me", "", nil), http.StatusUnauthorized)
	s.expect(s.do(http.MethodGet, "/auth/me", sess.refresh, nil), http.StatusUnauthorized)
	s.expect(s.do(http.MethodGet, "/auth/me", sess.access, nil), http.StatusOK)

	s.expect(s.do(http.MethodPost, "/auth/logout", sess.access, map[string]any{"refresh_token": sess.refresh}), http.StatusNoContent)
	s.expect(s.do(http.MethodGet, "/auth/me", sess.access, nil), http.StatusUnauthorized)
	s.expect(s.do(http.MethodPost, "/auth/refresh", "", map[string]any{"refresh_token": sess.refresh}), http.StatusUnauthorized)
}

func TestPasswordResetOverHTTP(t *testing.T) {
	s := newServer(t)
	s.register("alice", false)

	w := s.do(http.MethodPost, "/auth/forgot-password", "", map[string]any{"email": "alice@example.test"})
	s.expect(w, http.StatusOK)
	token, _ := decode[map[string]any](t, w)["reset_token"].(string)
	if token == "" {
		t.Fatalf("reset token not exposed: %s", w.Body.String())
	}

	w = s.do(http.MethodPost, "/auth/reset-password", "", map[string]any{"token": token, "password": "fresh-secret"})
	s.expect(w, http.StatusOK)
	w = s.do(http.MethodPost, "/auth/login", "", map[string]any{"email": "alice@example.test", "password": "fresh-secret"})
	s.expect(w, http.StatusOK)
}

func TestRoleGates(t *testing.T) {
	s := newServer(t)
	rec := s.register("rita", true)
	seeker := s.register("sara", false)
	s.expect(s.do(http.MethodPost, "/companies", rec.access, map[string]any{"name": "Acme"}), http.StatusCreated)
	w := s.do(http.MethodPost, "/jobs", rec.access, map[string]any{"title": "Engineer", "description": "d"})
	s.expect(w, http.StatusCreated)
	jobPath := idPath("/jobs", uint(decode[map[string]any](t, w)["id"].(float64)))

	s.expect(s.do(http.MethodPost, "/jobs", seeker.access, map[string]any{"title": "x", "description": "y"}), http.StatusForbidden)
	s.expect(s.do(http.MethodPut, jobPath, seeker.access, map[string]any{"title": "x"}), http.StatusForbidden)
	s.expect(s.do(http.MethodDelete, jobPath, seeker.access, nil), http.StatusForbidden)
	s.expect(s.do(http.MethodPost, "/companies", seeker.access, map[string]any{"name": "Nope"}), http.StatusForbidden)
	s.expect(s.do(http.MethodPost, jobPath+"/apply", rec.access, map[string]any{}), http.StatusForbidden)
	s.expect(s.do(http.MethodPost, "/applications", rec.access, map[string]any{"user_id": seeker.id, "job_id": 1}), http.StatusForbidden)

	s.expect(s.do(http.MethodPost, jobPath+"/apply", seeker.access, map[string]any{}), http.StatusCreated)
}

func TestStrictUpdateBodies(t *testing.T) {
	s := newServer(t)
	rec := s.register("rita", true)
	s.expect(s.do(http.MethodPost, "/companies", rec.access, map[string]any{"name": "Acme"}), http.StatusCreated)
	w := s.do(http.MethodPost, "/jobs", rec.access, map[string]any{"title": "Engineer", "description": "d"})
	s.expect(w, http.StatusCreated)
	jobPath := idPath("/jobs", uint(decode[map[string]any](t, w)["id"].(float64)))

	w = s.do(http.MethodPut, jobPath, rec.access, map[string]any{"recruiter_id": 99})
	s.expect(w, http.StatusBadRequest)
	if body := decode[handlers.APIError](t, w); body.Code != utils.CodeInvalidArgument || body.Error == "" {
		t.Fatalf("error body = %+v", body)
	}
	s.expect(s.do(http.MethodPut, idPath("/users", rec.id), rec.access, map[string]any{"is_recruiter": false}), http.StatusBadRequest)
	s.expect(s.do(http.MethodPut, jobPath, rec.access, "{not json"), http.StatusBadRequest)

	w = s.do(http.MethodPut, jobPath, rec.access, map[string]any{"location": "Remote"})
	s.expect(w, http.StatusOK)
	if got := decode[map[string]any](t, w); got["location"] != "Remote" {
		t.Fatalf("location = %v", got["location"])
	}
}

func TestPublicListings(t *testing.T) {
	s := newServer(t)
	rec := s.register("rita", true)
	s.expect(s.do(http.MethodPost, "/companies", rec.access, map[string]any{"name": "Acme"}), http.StatusCreated)
	for _, title := range []string{"Go Engineer", "Designer", "Site Engineer"} {
		s.expect(s.do(http.MethodPost, "/jobs", rec.access, map[string]any{"title": title, "description": "d"}), http.StatusCreated)
	}

	w := s.do(http.MethodGet, "/jobs?title=engineer&per_page=1&_expand=company", "", nil)
	s.expect(w, http.StatusOK)
	if w.Header().Get("X-Total-Count") != "2" {
		t.Fatalf("X-Total-Count = %q", w.Header().Get("X-Total-Count"))
	}
	rows := decode[[]map[string]any](t, w)
	if len(rows) != 1 || rows[0]["company"] == nil {
		t.Fatalf("rows = %v", rows)
	}

	s.expect(s.do(http.MethodGet, "/jobs?_expand=password", "", nil), http.StatusBadRequest)
	s.expect(s.do(http.MethodGet, "/jobs?page=0", "", nil), http.StatusBadRequest)
	s.expect(s.do(http.MethodGet, "/jobs/999", "", nil), http.StatusNotFound)
	s.expect(s.do(http.MethodGet, "/jobs/abc", "", nil), http.StatusBadRequest)
	s.expect(s.do(http.MethodGet, "/companies?name=ac", "", nil), http.StatusOK)

	s.expect(s.do(http.MethodGet, "/users", "", nil), http.StatusUnauthorized)
	s.expect(s.do(http.MethodGet, "/users", rec.access, nil), http.StatusOK)
}

func TestSavedJobsOverHTTP(t *testing.T) {
	s := newServer(t)
	rec := s.register("rita", true)
	seeker := s.register("sara", false)
	other := s.register("otto", false)
	s.expect(s.do(http.MethodPost, "/companies", rec.access, map[string]any{"name": "Acme"}), http.StatusCreated)
	w := s.do(http.MethodPost, "/jobs", rec.access, map[string]any{"title": "Engineer", "description": "d"})
	s.expect(w, http.StatusCreated)
	jobID := uint(decode[map[string]any](t, w)["id"].(float64))

	body := map[string]any{"user_id": seeker.id, "job_id": jobID}
	s.expect(s.do(http.MethodPost, "/saved_jobs", seeker.access, body), http.StatusCreated)
	s.expect(s.do(http.MethodPost, "/saved_jobs", seeker.access, body), http.StatusOK)
	s.expect(s.do(http.MethodPost, "/saved_jobs", other.access, body), http.StatusForbidden)

	w = s.do(http.MethodGet, "/saved_jobs?_expand=job", seeker.access, nil)
	s.expect(w, http.StatusOK)
	if w.Header().Get("X-Total-Count") != "1" {
		t.Fatalf("X-Total-Count = %q", w.Header().Get("X-Total-Count"))
	}

	path := idPath("/saved_jobs", jobID)
	s.expect(s.do(http.MethodDelete, path, seeker.access, nil), http.StatusNoContent)
	s.expect(s.do(http.MethodDelete, path, seeker.access, nil), http.StatusNoContent)
}

func TestResumeUploadWithoutStorage(t *testing.T) {
	s := newServer(t)
	seeker := s.register("sara", false)

	var buf bytes.Buffer
	buf.WriteString("--b\r\nContent-Disposition: form-data; name=\"file\"; filename=\"cv.pdf\"\r\nContent-Type: application/pdf\r\n\r\n%PDF-1.4\r\n--b--\r\n")
	req := httptest.NewRequest(http.MethodPost, "/applications/resume", &buf)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=b")
	req.Header.Set("Authorization", "Bearer "+seeker.access)
	w := httptest.NewRecorder()
	s.h.ServeHTTP(w, req)
	s.expect(w, http.StatusServiceUnavailable)
}

func TestCompanyMembershipOverHTTP(t *testing.T) {
	s := newServer(t)
	rec := s.register("rita", true)
	w := s.do(http.MethodPost, "/companies", rec.access, map[string]any{"name": "Acme"})
	s.expect(w, http.StatusCreated)
	companyID := uint(decode[map[string]any](t, w)["id"].(float64))
	w = s.do(http.MethodPost, "/jobs", rec.access, map[string]any{"title": "Engineer", "description": "d"})
	s.expect(w, http.StatusCreated)
	jobID := uint(decode[map[string]any](t, w)["id"].(float64))

	w = s.do(http.MethodPost, "/auth/register", "", map[string]any{
		"username":     "mallory",
		"email":        "mallory@example.test",
		"password":     "secret123",
		"is_recruiter": true,
		"company_id":   companyID,
	})
	s.expect(w, http.StatusCreated)
	res := decode[services.AuthResult](t, w)
	if res.User.CompanyID != nil {
		t.Fatalf("registration joined company %d", *res.User.CompanyID)
	}
	mallory := session{id: res.User.ID, access: res.AccessToken}

	members := idPath("/companies", companyID) + "/recruiters"
	s.expect(s.do(http.MethodPut, idPath("/jobs", jobID), mallory.access, map[string]any{"title": "x"}), http.StatusForbidden)
	s.expect(s.do(http.MethodPost, members, mallory.access, map[string]any{"user_id": mallory.id}), http.StatusForbidden)
	s.expect(s.do(http.MethodPost, members, rec.access, map[string]any{}), http.StatusBadRequest)
	s.expect(s.do(http.MethodPost, members, rec.access, map[string]any{"user_id": mallory.id, "role": "admin"}), http.StatusBadRequest)

	w = s.do(http.MethodPost, members, rec.access, map[string]any{"user_id": mallory.id})
	s.expect(w, http.StatusOK)
	s.expect(s.do(http.MethodPost, members, rec.access, map[string]any{"user_id": mallory.id}), http.StatusConflict)
	s.expect(s.do(http.MethodPut, idPath("/jobs", jobID), mallory.access, map[string]any{"location": "Remote"}), http.StatusOK)

	s.expect(s.do(http.MethodDelete, idPath(members, mallory.id), rec.access, nil), http.StatusNoContent)
	s.expect(s.do(http.MethodPut, idPath("/jobs", jobID), mallory.access, map[string]any{"title": "x"}), http.StatusForbidden)
}
