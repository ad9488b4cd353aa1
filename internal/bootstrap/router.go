package bootstrap

import (
	"time"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/planforge/planforge-backend/config"
	apihttp "github.com/planforge/planforge-backend/internal/api/http"
	"github.com/planforge/planforge-backend/internal/api/http/middleware"
	"github.com/planforge/planforge-backend/internal/auth"
	"github.com/planforge/planforge-backend/internal/blob"
	"github.com/planforge/planforge-backend/internal/explore"
	explorehttp "github.com/planforge/planforge-backend/internal/explore/http"
	"github.com/planforge/planforge-backend/internal/notifications"
	notifhttp "github.com/planforge/planforge-backend/internal/notifications/http"
	"github.com/planforge/planforge-backend/internal/projects"
	projectshttp "github.com/planforge/planforge-backend/internal/projects/http"
	projectsvc "github.com/planforge/planforge-backend/internal/projects/service"
	"github.com/planforge/planforge-backend/internal/ratelimit"
	"github.com/planforge/planforge-backend/internal/sharing"
	sharinghttp "github.com/planforge/planforge-backend/internal/sharing/http"
	"github.com/planforge/planforge-backend/internal/users"
	usershttp "github.com/planforge/planforge-backend/internal/users/http"
)

type RouterDeps struct {
	ServiceName string
	Config      *config.Config
	DB          *pgxpool.Pool
	Redis       *redis.Client
	AuthClient  *fbauth.Client // nil when AUTH_MODE=dev
	Blobs       blob.Store     // nil when BLOB_BACKEND=inline
	Logger      zerolog.Logger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID(dep.Logger))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     dep.Config.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Request-Id", "X-User-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	healthHandler := apihttp.NewHealthHandler(dep.ServiceName, dep.Config.App.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	userRepo := users.NewRepo(dep.DB, dep.Config.App.UsernameGracePeriod)
	projectRepo := projects.NewRepo(dep.DB)
	versionRepo := projects.NewVersionRepo(dep.DB)
	snapshotRepo := projects.NewSnapshotRepo(dep.DB)
	shareRepo := sharing.NewRepo(dep.DB)
	notifRepo := notifications.NewRepo(dep.DB)

	notifSvc := notifications.NewService(notifRepo, notifications.NewUnreadCache(dep.Redis), dep.Logger)
	projectSvc := projectsvc.New(projectRepo, versionRepo, snapshotRepo, shareRepo, dep.Blobs)
	shareSvc := sharing.NewService(shareRepo, sharing.NewLinkCache(dep.Redis), projectSvc, projectRepo,
		versionRepo, snapshotRepo, notifSvc, dep.Logger)
	exploreSvc := explore.NewService(projectRepo, dep.Redis, dep.Logger)

	availabilityLimiter := ratelimit.NewKeyed(rate.Limit(5), 10)

	userHandler := usershttp.NewHandler(userRepo, availabilityLimiter)
	projectHandler := projectshttp.NewHandler(projectSvc)
	shareHandler := sharinghttp.NewHandler(shareSvc)
	notifHandler := notifhttp.NewHandler(notifSvc)
	exploreHandler := explorehttp.NewHandler(exploreSvc)

	public := r.Group("/api/v1")
	authed := r.Group("/api/v1")
	if dep.Config.Auth.Mode == "dev" {
		public.Use(auth.OptionalDevAuth(userRepo))
		authed.Use(auth.DevAuth(userRepo, dep.Config.Auth.AdminUIDs))
	} else {
		public.Use(auth.OptionalFirebaseAuth(dep.AuthClient, userRepo))
		authed.Use(auth.FirebaseAuth(dep.AuthClient, userRepo, dep.Config.Auth.AdminUIDs))
	}
	authed.Use(auth.RequireNotBanned())

	projectHandler.RegisterPublic(public)
	exploreHandler.Register(public.Group("/explore"))

	userHandler.Register(authed.Group("/users"))

	projectsGroup := authed.Group("/projects")
	projectHandler.Register(projectsGroup)
	shareHandler.RegisterProjectRoutes(projectsGroup)

	shareHandler.RegisterShareRoutes(public, authed)

	notifHandler.Register(authed.Group("/notifications"))

	admin := authed.Group("/admin")
	admin.Use(auth.RequireAdmin())
	userHandler.RegisterAdmin(admin)
	exploreHandler.RegisterAdmin(admin)

	return r
}
