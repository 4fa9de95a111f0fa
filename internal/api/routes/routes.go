package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yoockh/jobboard/internal/api/handlers"
	"github.com/yoockh/jobboard/internal/api/middleware"
)

type Deps struct {
	Auth          middleware.Authenticator
	AuthH         *handlers.AuthHandler
	Users         *handlers.UserHandler
	Companies     *handlers.CompanyHandler
	Jobs          *handlers.JobHandler
	Applications  *handlers.ApplicationHandler
	SavedJobs     *handlers.SavedJobHandler
	Notifications *handlers.WSHandler // optional
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	jwt := middleware.JWTAuth(d.Auth)
	recruiter := middleware.RequireRecruiter()
	seeker := middleware.RequireJobSeeker()

	// Public
	r.POST("/auth/register", d.AuthH.Register)
	r.POST("/auth/login", d.AuthH.Login)
	r.POST("/auth/refresh", d.AuthH.Refresh)
	r.POST("/auth/forgot-password", d.AuthH.ForgotPassword)
	r.POST("/auth/reset-password", d.AuthH.ResetPassword)

	r.GET("/jobs", d.Jobs.List)
	r.GET("/jobs/:id", d.Jobs.Get)
	r.GET("/companies", d.Companies.List)
	r.GET("/companies/:id", d.Companies.Get)

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(jwt)

	auth.POST("/auth/logout", d.AuthH.Logout)
	auth.GET("/auth/me", d.AuthH.Me)

	auth.GET("/users", d.Users.List)
	auth.POST("/users", d.Users.Create)
	auth.GET("/users/:id", d.Users.Get)
	auth.PUT("/users/:id", d.Users.Update)
	auth.DELETE("/users/:id", d.Users.Delete)
	auth.GET("/users/:id/applications", d.Users.Applications)

	auth.POST("/companies", recruiter, d.Companies.Create)
	auth.PUT("/companies/:id", recruiter, d.Companies.Update)
	auth.DELETE("/companies/:id", recruiter, d.Companies.Delete)
	auth.POST("/companies/:id/recruiters", recruiter, d.Companies.AddRecruiter)
	auth.DELETE("/companies/:id/recruiters/:user_id", recruiter, d.Companies.RemoveRecruiter)

	auth.POST("/jobs", recruiter, d.Jobs.Create)
	auth.PUT("/jobs/:id", recruiter, d.Jobs.Update)
	auth.DELETE("/jobs/:id", recruiter, d.Jobs.Delete)
	auth.POST("/jobs/:id/apply", seeker, d.Jobs.Apply)

	auth.GET("/applications", d.Applications.List)
	auth.POST("/applications", d.Applications.Create)
	auth.POST("/applications/resume", seeker, d.Applications.UploadResume)
	auth.GET("/applications/:id", d.Applications.Get)
	auth.PATCH("/applications/:id/status", d.Applications.UpdateStatus)
	auth.GET("/applications/:id/events", d.Applications.Events)

	auth.GET("/saved_jobs", d.SavedJobs.List)
	auth.POST("/saved_jobs", d.SavedJobs.Create)
	auth.DELETE("/saved_jobs/:job_id", d.SavedJobs.Delete)

	// WebSocket
	if d.Notifications != nil {
		auth.GET("/ws/notifications", d.Notifications.Notifications)
	}
}
