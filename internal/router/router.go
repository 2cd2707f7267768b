package router

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"jobportal/docs"
	"jobportal/internal/config"
	apperrors "jobportal/internal/errors"
	"jobportal/internal/handler"
	appmw "jobportal/internal/middleware"
	"jobportal/internal/model"
)

// Handlers groups every HTTP handler the router mounts.
type Handlers struct {
	Health        *handler.HealthHandler
	Auth          *handler.AuthHandler
	Jobs          *handler.JobHandler
	Applications  *handler.ApplicationHandler
	Certificates  *handler.CertificateHandler
	Notifications *handler.NotificationHandler
	Chat          *handler.ChatHandler
	Subscriptions *handler.SubscriptionHandler
	MockTests     *handler.MockTestHandler
	Shopkeepers   *handler.ShopkeeperHandler
	Users         *handler.UserHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log zerolog.Logger,
	authn *appmw.Authenticator,
	limiter appmw.Counter,
	h Handlers,
) {
	e.HTTPErrorHandler = ErrorHandler(log)
	e.Validator = NewValidator()

	e.Use(middleware.RequestID())
	e.Use(RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit("12M"))

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz", h.Health.Check)
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	if cfg.UploadBackend != "cloudinary" {
		e.Static("/uploads", cfg.UploadDir)
	}

	limit := func(rule appmw.Rule) echo.MiddlewareFunc {
		if !cfg.RateLimitEnabled {
			return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
		}
		return appmw.RateLimit(limiter, rule, log)
	}

	api := e.Group("/api", limit(appmw.GeneralRule))
	authLimit := limit(appmw.AuthRule)
	uploadLimit := limit(appmw.UploadRule)

	// Public routes
	api.POST("/auth/register", h.Auth.Register, authLimit)
	api.POST("/auth/login", h.Auth.Login, authLimit)
	api.GET("/jobs", h.Jobs.List)
	api.GET("/subscriptions", h.Subscriptions.ListPlans)
	api.GET("/shopkeepers", h.Shopkeepers.ListShopkeepers)
	api.GET("/shopkeepers/:id", h.Shopkeepers.GetShopkeeper)

	// Secured routes (require JWT authentication)
	secured := api.Group("", authn.Authenticate())

	student := appmw.Authorize(model.RoleStudent)
	employer := appmw.Authorize(model.RoleEmployer)
	poster := appmw.Authorize(model.RoleEmployer, model.RoleAdmin)
	subscriber := appmw.Authorize(model.RoleStudent, model.RoleEmployer)
	admin := appmw.Authorize(model.RoleAdmin)

	secured.GET("/auth/me", h.Auth.Me)
	secured.POST("/auth/logout", h.Auth.Logout)
	secured.PUT("/auth/profile", h.Auth.UpdateProfile)
	secured.PUT("/auth/change-password", h.Auth.ChangePassword)

	// Job routes
	secured.GET("/jobs/mine", h.Jobs.ListMine, poster)
	api.GET("/jobs/:id", h.Jobs.Get)
	secured.POST("/jobs", h.Jobs.Create, poster)
	secured.PUT("/jobs/:id", h.Jobs.Update, poster)
	secured.DELETE("/jobs/:id", h.Jobs.Delete, poster)

	// Application routes
	secured.POST("/applications", h.Applications.Submit, student, uploadLimit)
	secured.GET("/applications/student", h.Applications.ListForStudent, student)
	secured.GET("/applications/employer", h.Applications.ListForEmployer, employer)
	secured.GET("/applications/admin", h.Applications.ListAll, admin)
	secured.GET("/applications/:id", h.Applications.Get)
	secured.PUT("/applications/:id/status", h.Applications.SetStatus, poster)
	secured.PUT("/applications/:id/withdraw", h.Applications.Withdraw, student)

	// Certificate routes
	secured.POST("/certificates", h.Certificates.Upload, student, uploadLimit)
	secured.GET("/certificates/student", h.Certificates.ListForStudent, student)
	secured.GET("/certificates/admin", h.Certificates.ListAll, admin)
	secured.PUT("/certificates/:id/verify", h.Certificates.Verify, admin)
	secured.DELETE("/certificates/:id", h.Certificates.Delete)

	// Notification routes
	secured.GET("/notifications", h.Notifications.List)
	secured.GET("/notifications/unread-count", h.Notifications.UnreadCount)
	secured.PUT("/notifications/read-all", h.Notifications.MarkAllRead)
	secured.PUT("/notifications/:id/read", h.Notifications.MarkRead)
	secured.DELETE("/notifications/:id", h.Notifications.Delete)

	// Chat routes
	secured.GET("/chat", h.Chat.List)
	secured.POST("/chat", h.Chat.Start)
	secured.GET("/chat/:id/messages", h.Chat.Messages)
	secured.POST("/chat/:id/messages", h.Chat.Send)
	secured.PUT("/chat/:id/read", h.Chat.MarkRead)
	secured.GET("/chat/:id/ws", h.Chat.Stream)

	// Subscription routes
	secured.GET("/subscriptions/me/entitlements", h.Subscriptions.Entitlements)
	api.GET("/subscriptions/:id", h.Subscriptions.GetPlan)
	secured.POST("/subscriptions", h.Subscriptions.CreatePlan, admin)
	secured.PUT("/subscriptions/:id", h.Subscriptions.UpdatePlan, admin)
	secured.DELETE("/subscriptions/:id", h.Subscriptions.DeletePlan, admin)
	secured.POST("/subscriptions/:id/subscribe", h.Subscriptions.Subscribe, subscriber)

	// Mock test routes
	secured.GET("/mock-tests", h.MockTests.List)
	secured.GET("/mock-tests/results", h.MockTests.Results, student)
	secured.GET("/mock-tests/:id", h.MockTests.Get)
	secured.POST("/mock-tests", h.MockTests.Create, admin)
	secured.PUT("/mock-tests/:id", h.MockTests.Update, admin)
	secured.DELETE("/mock-tests/:id", h.MockTests.Delete, admin)
	secured.POST("/mock-tests/:id/submit", h.MockTests.Submit, student)

	// Admin routes
	secured.PUT("/shopkeepers/:id/verify", h.Shopkeepers.VerifyShopkeeper, admin)
	secured.GET("/users", h.Users.ListUsers, admin)
	secured.GET("/users/:id", h.Users.GetUser, admin)
	secured.PUT("/users/:id/status", h.Users.SetStatus, admin)
}

// RequestLogger logs every request once through log.
func RequestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			} else if v.Status >= http.StatusBadRequest {
				ev = log.Warn()
			}
			if u := appmw.Actor(c); u != nil {
				ev = ev.Str("actor_id", u.ID.String())
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

// ErrorHandler renders every failure as {"message", "error"}. Domain errors
// are mapped through MapErrorToHTTP; server errors are logged and hidden.
func ErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var status int
		var body apperrors.ErrorResponse
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
			msg, ok := he.Message.(string)
			if !ok || status >= http.StatusInternalServerError {
				msg = http.StatusText(status)
			}
			body = apperrors.ErrorResponse{Message: msg, Error: apperrors.CodeForStatus(status)}
		} else {
			mapped := apperrors.MapErrorToHTTP(err)
			status = mapped.StatusCode
			body = mapped.ToErrorResponse()
		}

		if status >= http.StatusInternalServerError {
			log.Error().Err(err).
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Str("uri", c.Request().RequestURI).
				Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.Error().Err(err).Msg("write error response")
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates the request validator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
