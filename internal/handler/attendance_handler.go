package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"campus/internal/middleware"
	"campus/internal/model"
	"campus/internal/service"
)

// AttendanceHandler handles attendance marking and reports.
type AttendanceHandler struct {
	attendanceService service.AttendanceService
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(attendanceService service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService}
}

// MarkAttendanceRequest represents one attendance mark. Date uses YYYY-MM-DD.
type MarkAttendanceRequest struct {
	UserID   string `json:"userId" validate:"required,uuid"`
	CourseID string `json:"courseId" validate:"omitempty,uuid"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Status   string `json:"status" validate:"required,oneof=PRESENT ABSENT LATE"`
}

// Mark godoc
// @Summary Mark attendance
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body MarkAttendanceRequest true "Attendance"
// @Success 200 {object} model.Attendance
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} errors.ErrorResponse
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return middleware.Unauthorized()
	}

	var req MarkAttendanceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	date, _ := time.Parse(time.DateOnly, req.Date)
	in := service.MarkAttendanceInput{
		UserID: uuid.MustParse(req.UserID),
		Date:   date,
		Status: model.AttendanceStatus(req.Status),
	}
	if req.CourseID != "" {
		id := uuid.MustParse(req.CourseID)
		in.CourseID = &id
	}

	record, err := h.attendanceService.Mark(c.Request().Context(), p.User.ID, in)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, record)
}

// StudentSummary godoc
// @Summary Attendance summary of a student
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param semesterId query string false "Semester ID"
// @Success 200 {object} service.StudentReport
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /attendance/students/{id}/summary [get]
func (h *AttendanceHandler) StudentSummary(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return middleware.Unauthorized()
	}

	userID, err := parseUUID(c, "id")
	if err != nil {
		return err
	}
	// students may only read their own summary
	if p.Role() == model.RoleStudent && p.User.ID != userID {
		return middleware.Forbidden()
	}

	semesterID, err := parseOptionalUUID(c, "semesterId")
	if err != nil {
		return err
	}

	report, err := h.attendanceService.StudentSummary(c.Request().Context(), userID, semesterID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, report)
}

// CourseSummary godoc
// @Summary Attendance summary of a course
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} service.CourseReport
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /attendance/courses/{id}/summary [get]
func (h *AttendanceHandler) CourseSummary(c echo.Context) error {
	courseID, err := parseUUID(c, "id")
	if err != nil {
		return err
	}

	report, err := h.attendanceService.CourseSummary(c.Request().Context(), courseID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, report)
}

// AtRisk godoc
// @Summary Students below the attendance threshold
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param semesterId query string false "Semester ID"
// @Success 200 {array} service.StudentReport
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /attendance/at-risk [get]
func (h *AttendanceHandler) AtRisk(c echo.Context) error {
	semesterID, err := parseOptionalUUID(c, "semesterId")
	if err != nil {
		return err
	}

	reports, err := h.attendanceService.AtRisk(c.Request().Context(), semesterID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, reports)
}
