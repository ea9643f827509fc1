package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"campus/docs"
	"campus/internal/config"
	"campus/internal/handler"
	"campus/internal/middleware"
	"campus/internal/model"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger *zap.Logger,
	gate middleware.Authenticator,
	authHandler *handler.AuthHandler,
	academicHandler *handler.AcademicHandler,
	attendanceHandler *handler.AttendanceHandler,
) {
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.Recover())
	e.Use(middleware.Metrics())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	// Secured routes (require a live session)
	secured := api.Group("", middleware.SessionAuth(gate))

	secured.POST("/auth/logout", authHandler.Logout)
	secured.POST("/auth/logout-all", authHandler.LogoutAll)
	secured.GET("/me", authHandler.Me)

	admin := middleware.RequireRole(model.RoleAdmin)
	staff := middleware.RequireRole(model.RoleFaculty, model.RoleAdmin)

	// Academic structure
	secured.GET("/semesters", academicHandler.ListSemesters)
	secured.POST("/semesters", academicHandler.CreateSemester, admin)
	secured.POST("/courses", academicHandler.CreateCourse, admin)
	secured.POST("/enrollments", academicHandler.Enroll, staff)

	// Attendance
	secured.POST("/attendance", attendanceHandler.Mark, staff)
	secured.GET("/attendance/students/:id/summary", attendanceHandler.StudentSummary)
	secured.GET("/attendance/courses/:id/summary", attendanceHandler.CourseSummary, staff)
	secured.GET("/attendance/at-risk", attendanceHandler.AtRisk, staff)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
