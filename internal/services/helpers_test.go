package services_test

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobboard/internal/auth"
	"github.com/yoockh/jobboard/internal/models"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/services"
	"github.com/yoockh/jobboard/internal/testutil"
	"github.com/yoockh/jobboard/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	utils.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ApplicationEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e models.ApplicationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) all() []models.ApplicationEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.ApplicationEvent(nil), p.events...)
}

type fakeAudit struct {
	mu   sync.Mutex
	rows []models.ApplicationEvent
}

func (f *fakeAudit) Insert(_ context.Context, e *models.ApplicationEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *e)
	return nil
}

func (f *fakeAudit) ListByApplication(_ context.Context, id uint, _ int) ([]models.ApplicationEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ApplicationEvent
	for _, e := range f.rows {
		if e.ApplicationID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeUploader struct {
	objects map[string][]byte
}

func (f *fakeUploader) Upload(_ context.Context, name, _ string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[name] = b
	return "https://files.test/" + name, nil
}

type env struct {
	repos  *pgrepo.Repositories
	cache  *testutil.FakeCache
	issuer *auth.Issuer
	pub    *recordingPublisher
	audit  *fakeAudit
	upl    *fakeUploader

	Auth         services.AuthService
	Users        services.UserService
	Companies    services.CompanyService
	Jobs         services.JobService
	Applications services.ApplicationService
	SavedJobs    services.SavedJobService
	Resumes      services.ResumeService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	iss, err := auth.NewIssuer(auth.IssuerConfig{
		AccessSecret: "test-secret",
		AccessTTL:    15 * time.Minute,
		RefreshTTL:   24 * time.Hour,
		Issuer:       "jobboard-test",
	})
	if err != nil {
		t.Fatalf("NewIssuer: %v", err)
	}

	e := &env{
		repos:  pgrepo.New(testutil.OpenSQLite(t)),
		cache:  testutil.NewFakeCache(),
		issuer: iss,
		pub:    &recordingPublisher{},
		audit:  &fakeAudit{},
		upl:    &fakeUploader{},
	}
	e.Auth = services.NewAuthService(e.repos, iss, auth.NewStore(e.cache), 30*time.Minute, log)
	e.Users = services.NewUserService(e.repos)
	e.Companies = services.NewCompanyService(e.repos)
	e.Jobs = services.NewJobService(e.repos)
	e.Applications = services.NewApplicationService(e.repos, e.audit, e.pub, log)
	e.SavedJobs = services.NewSavedJobService(e.repos)
	e.Resumes = services.NewResumeService(e.repos.Users, e.upl)
	return e
}

func (e *env) register(t *testing.T, username string, recruiter bool) *services.AuthResult {
	t.Helper()
	res, err := e.Auth.Register(context.Background(), services.RegisterInput{
		Username:    username,
		Email:       strings.ToLower(username) + "@example.test",
		Password:    "secret123",
		IsRecruiter: recruiter,
	})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return res
}

// recruiterWithCompany registers a recruiter that owns a fresh company.
func (e *env) recruiterWithCompany(t *testing.T, username, company string) (*models.User, *models.Company) {
	t.Helper()
	u := e.register(t, username, true).User
	c, err := e.Companies.Create(context.Background(), u.ID, services.CompanyInput{Name: company})
	if err != nil {
		t.Fatalf("create company %s: %v", company, err)
	}
	return u, c
}

func (e *env) postJob(t *testing.T, recruiterID uint, title string) *models.Job {
	t.Helper()
	j, err := e.Jobs.Create(context.Background(), recruiterID, services.JobInput{Title: title, Description: "desc"})
	if err != nil {
		t.Fatalf("post job %s: %v", title, err)
	}
	return j
}

func wantCode(t *testing.T, err error, code utils.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("want %s, got nil", code)
	}
	if got := utils.CodeOf(err); got != code {
		t.Fatalf("want %s, got %s (%v)", code, got, err)
	}
}

func uintPtr(v uint) *uint    { return &v }
func strPtr(v string) *string { return &v }
