package handler

import (
	"apartment_booking/internal/logger"
	"apartment_booking/internal/middleware"
	"apartment_booking/internal/service"
	"apartment_booking/internal/utils"

	"github.com/gin-gonic/gin"
)

// Services bundles everything the HTTP layer calls into
type Services struct {
	Auth       service.AuthService
	Users      service.UserService
	Apartments service.ApartmentService
	Bookings   service.BookingService
	Reviews    service.ReviewService
	Admin      service.AdminService
}

// RouterConfig holds the transport settings of NewRouter
type RouterConfig struct {
	JWT        *utils.JWTUtil
	DB         Pinger
	Log        *logger.Logger
	CORSOrigin string
	// UploadsDir is served under /uploads when images are kept on local disk
	UploadsDir string
}

// NewRouter builds the gin engine with every route mounted under /api
func NewRouter(cfg RouterConfig, svc Services) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging(cfg.Log))
	router.Use(middleware.CORS(cfg.CORSOrigin))
	router.MaxMultipartMemory = service.MaxFileSize + 1<<20

	if cfg.UploadsDir != "" {
		router.Static("/uploads", cfg.UploadsDir)
	}

	jwtAuthMW := middleware.JWTAuthMiddleware(cfg.JWT)
	optionalAuthMW := middleware.OptionalJWTAuthMiddleware(cfg.JWT)
	adminRoleMW := middleware.AdminMiddleware()

	apiGroup := router.Group("/api")
	NewHealthHandler(cfg.DB, cfg.Log).RegisterHealthRoutes(apiGroup)
	NewAuthHandler(svc.Auth, cfg.Log).RegisterAuthRoutes(apiGroup, jwtAuthMW)
	NewUserHandler(svc.Users, svc.Auth, cfg.Log).RegisterUserRoutes(apiGroup, jwtAuthMW, adminRoleMW)
	NewApartmentHandler(svc.Apartments, cfg.Log).RegisterApartmentRoutes(apiGroup, jwtAuthMW, optionalAuthMW, adminRoleMW)
	NewBookingHandler(svc.Bookings, cfg.Log).RegisterBookingRoutes(apiGroup, jwtAuthMW)
	NewReviewHandler(svc.Reviews, cfg.Log).RegisterReviewRoutes(apiGroup, jwtAuthMW, optionalAuthMW)
	NewAdminHandler(svc.Admin, cfg.Log).RegisterAdminRoutes(apiGroup, jwtAuthMW, adminRoleMW)

	return router
}
