// Command seed fills an empty database with demo recruiters, companies, jobs
// and applications. It goes through the services so every rule applies.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/jobboard/config"
	"github.com/yoockh/jobboard/internal/logger"
	pgrepo "github.com/yoockh/jobboard/internal/repositories/postgres"
	"github.com/yoockh/jobboard/internal/services"
)

const demoPassword = "password123"

type demoCompany struct {
	recruiter services.RegisterInput
	company   services.CompanyInput
	jobs      []services.JobInput
}

func intPtr(v int) *int { return &v }

var demo = []demoCompany{
	{
		recruiter: services.RegisterInput{Username: "rita", Email: "rita@acme.test", FirstName: "Rita", LastName: "Recruiter", IsRecruiter: true},
		company:   services.CompanyInput{Name: "Acme Corp", Industry: "Software", Location: "Jakarta", Website: "https://acme.test", ContactEmail: "jobs@acme.test"},
		jobs: []services.JobInput{
			{Title: "Backend Engineer", Description: "Build and run Go services.", Location: "Jakarta", JobType: "full-time", SalaryMin: intPtr(15000000), SalaryMax: intPtr(25000000), Skills: []string{"Go", "PostgreSQL", "Redis"}},
			{Title: "Frontend Engineer", Description: "Own the web app.", Location: "Remote", JobType: "full-time", Skills: []string{"TypeScript", "React"}},
		},
	},
	{
		recruiter: services.RegisterInput{Username: "ben", Email: "ben@globex.test", FirstName: "Ben", LastName: "Hiring", IsRecruiter: true},
		company:   services.CompanyInput{Name: "Globex", Industry: "Logistics", Location: "Bandung"},
		jobs: []services.JobInput{
			{Title: "Data Analyst", Description: "Turn shipment data into decisions.", Location: "Bandung", JobType: "contract", Skills: []string{"SQL", "Python"}},
		},
	},
}

var seekers = []services.RegisterInput{
	{Username: "sara", Email: "sara@mail.test", FirstName: "Sara", LastName: "Seeker"},
	{Username: "tom", Email: "tom@mail.test", FirstName: "Tom", LastName: "Seeker"},
}

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logger.New(cfg.Log.Level)

	db, err := config.OpenPostgres(cfg)
	if err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	if err := pgrepo.Migrate(db); err != nil {
		log.Fatalf("PostgreSQL migrate error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repos := pgrepo.New(db)
	if err := run(ctx, repos, log); err != nil {
		log.Fatalf("seed: %v", err)
	}
}

func run(ctx context.Context, repos *pgrepo.Repositories, log *logrus.Logger) error {
	_, total, err := repos.Users.List(ctx, pgrepo.UserFilter{}, pgrepo.Page{Limit: 1})
	if err != nil {
		return err
	}
	if total > 0 {
		log.WithField("users", total).Info("database not empty; nothing to seed")
		return nil
	}

	// CreateUser never touches the token issuer or store.
	authSvc := services.NewAuthService(repos, nil, nil, 0, log)
	companySvc := services.NewCompanyService(repos)
	jobSvc := services.NewJobService(repos)
	appSvc := services.NewApplicationService(repos, nil, nil, log)

	var jobIDs []uint
	for _, d := range demo {
		in := d.recruiter
		in.Password = demoPassword
		r, err := authSvc.CreateUser(ctx, in)
		if err != nil {
			return err
		}
		co, err := companySvc.Create(ctx, r.ID, d.company)
		if err != nil {
			return err
		}
		for _, j := range d.jobs {
			job, err := jobSvc.Create(ctx, r.ID, j)
			if err != nil {
				return err
			}
			jobIDs = append(jobIDs, job.ID)
		}
		log.WithFields(logrus.Fields{"recruiter": r.Username, "company": co.Name, "jobs": len(d.jobs)}).Info("seeded company")
	}

	for i, in := range seekers {
		in.Password = demoPassword
		s, err := authSvc.CreateUser(ctx, in)
		if err != nil {
			return err
		}
		// each seeker applies to every other job
		for k := i; k < len(jobIDs); k += 2 {
			if _, err := appSvc.Apply(ctx, s.ID, services.ApplyInput{
				JobID:       jobIDs[k],
				CoverLetter: "Hello, I would love to join your team.",
			}); err != nil {
				return err
			}
		}
		log.WithField("seeker", s.Username).Info("seeded job seeker")
	}
	log.WithField("password", demoPassword).Info("seed complete")
	return nil
}
