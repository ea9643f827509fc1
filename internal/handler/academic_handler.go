package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"campus/internal/model"
	"campus/internal/service"
)

// AcademicHandler handles semester, course and enrollment endpoints.
type AcademicHandler struct {
	academicService service.AcademicService
}

// NewAcademicHandler creates a new academic handler.
func NewAcademicHandler(academicService service.AcademicService) *AcademicHandler {
	return &AcademicHandler{academicService: academicService}
}

// CreateSemesterRequest represents a semester creation request. Dates use YYYY-MM-DD.
type CreateSemesterRequest struct {
	Name      string `json:"name" validate:"required,max=100"`
	Code      string `json:"code" validate:"required,max=32"`
	Year      int    `json:"year" validate:"required,min=1900,max=3000"`
	StartDate string `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" validate:"required,datetime=2006-01-02"`
}

// SemesterResponse is a semester with its state at response time.
type SemesterResponse struct {
	model.Semester
	Ended bool `json:"ended"`
}

func toSemesterResponse(semester *model.Semester, now time.Time) SemesterResponse {
	return SemesterResponse{Semester: *semester, Ended: semester.Ended(now)}
}

// CreateCourseRequest represents a course creation request.
type CreateCourseRequest struct {
	Code       string `json:"code" validate:"required,max=32"`
	Name       string `json:"name" validate:"required,max=255"`
	SemesterID string `json:"semesterId" validate:"required,uuid"`
	FacultyID  string `json:"facultyId" validate:"omitempty,uuid"`
}

// EnrollRequest represents a manual enrollment request.
type EnrollRequest struct {
	UserID   string `json:"userId" validate:"required,uuid"`
	CourseID string `json:"courseId" validate:"required,uuid"`
}

// CreateSemester godoc
// @Summary Create a semester
// @Tags semesters
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateSemesterRequest true "Semester"
// @Success 201 {object} SemesterResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 409 {object} errors.ErrorResponse
// @Router /semesters [post]
func (h *AcademicHandler) CreateSemester(c echo.Context) error {
	var req CreateSemesterRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	start, _ := time.Parse(time.DateOnly, req.StartDate)
	end, _ := time.Parse(time.DateOnly, req.EndDate)

	semester, err := h.academicService.CreateSemester(c.Request().Context(), req.Name, req.Code, req.Year, start, end)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, toSemesterResponse(semester, time.Now()))
}

// ListSemesters godoc
// @Summary List semesters
// @Tags semesters
// @Produce json
// @Security BearerAuth
// @Success 200 {array} SemesterResponse
// @Failure 401 {object} map[string]string
// @Router /semesters [get]
func (h *AcademicHandler) ListSemesters(c echo.Context) error {
	semesters, err := h.academicService.ListSemesters(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	now := time.Now()
	resp := make([]SemesterResponse, 0, len(semesters))
	for i := range semesters {
		resp = append(resp, toSemesterResponse(&semesters[i], now))
	}
	return c.JSON(http.StatusOK, resp)
}

// CreateCourse godoc
// @Summary Create a course in a semester
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCourseRequest true "Course"
// @Success 201 {object} model.Course
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /courses [post]
func (h *AcademicHandler) CreateCourse(c echo.Context) error {
	var req CreateCourseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	semesterID := uuid.MustParse(req.SemesterID)
	var facultyID *uuid.UUID
	if req.FacultyID != "" {
		id := uuid.MustParse(req.FacultyID)
		facultyID = &id
	}

	course, err := h.academicService.CreateCourse(c.Request().Context(), req.Code, req.Name, semesterID, facultyID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, course)
}

// Enroll godoc
// @Summary Enroll a student in a course
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body EnrollRequest true "Enrollment"
// @Success 201 {object} model.Enrollment
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /enrollments [post]
func (h *AcademicHandler) Enroll(c echo.Context) error {
	var req EnrollRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	enrollment, err := h.academicService.Enroll(c.Request().Context(), uuid.MustParse(req.UserID), uuid.MustParse(req.CourseID))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, enrollment)
}
