// Package repotest provides in-memory repositories with the same uniqueness and
// not-found behavior as the gorm-backed ones, for use in tests.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"campus/internal/model"
	"campus/internal/repository"
)

// Store holds every table. The zero value is not usable; call NewStore.
type Store struct {
	mu          sync.Mutex
	users       map[uuid.UUID]model.User
	sessions    map[string]model.Session
	semesters   map[uuid.UUID]model.Semester
	courses     map[uuid.UUID]model.Course
	enrollments []model.Enrollment
	attendance  []model.Attendance

	// OnEnrollmentCreate, when set, runs before an enrollment insert and may fail it.
	OnEnrollmentCreate func(*model.Enrollment) error
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:     make(map[uuid.UUID]model.User),
		sessions:  make(map[string]model.Session),
		semesters: make(map[uuid.UUID]model.Semester),
		courses:   make(map[uuid.UUID]model.Course),
	}
}

func (s *Store) Users() repository.UserRepository             { return userRepo{s} }
func (s *Store) Sessions() repository.SessionRepository       { return sessionRepo{s} }
func (s *Store) Semesters() repository.SemesterRepository     { return semesterRepo{s} }
func (s *Store) Courses() repository.CourseRepository         { return courseRepo{s} }
func (s *Store) Enrollments() repository.EnrollmentRepository { return enrollmentRepo{s} }
func (s *Store) Attendance() repository.AttendanceRepository  { return attendanceRepo{s} }

// EnrollmentCount returns the number of stored enrollments.
func (s *Store) EnrollmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.enrollments)
}

// HasEnrollment reports whether (user, course, semester) is enrolled.
func (s *Store) HasEnrollment(userID, courseID, semesterID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.enrollments {
		if e.UserID == userID && e.CourseID == courseID && e.SemesterID == semesterID {
			return true
		}
	}
	return false
}

// SessionCount returns the number of stored sessions.
func (s *Store) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email || sameOptional(u.StudentID, user.StudentID) || sameOptional(u.EmployeeID, user.EmployeeID) {
			return gorm.ErrDuplicatedKey
		}
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r userRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r userRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r userRepo) FindByIdentifier(_ context.Context, identifier string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == identifier ||
			(u.StudentID != nil && *u.StudentID == identifier) ||
			(u.EmployeeID != nil && *u.EmployeeID == identifier) {
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r userRepo) ListByIDs(_ context.Context, ids []uuid.UUID) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.User
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

type sessionRepo struct{ s *Store }

func (r sessionRepo) Create(_ context.Context, session *model.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.sessions[session.TokenHash]; ok {
		return gorm.ErrDuplicatedKey
	}
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	session.CreatedAt = time.Now()
	r.s.sessions[session.TokenHash] = *session
	return nil
}

func (r sessionRepo) FindByTokenHash(_ context.Context, tokenHash string) (*model.Session, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[tokenHash]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if u, ok := r.s.users[session.UserID]; ok {
		session.User = &u
	}
	return &session, nil
}

func (r sessionRepo) Deactivate(_ context.Context, tokenHash string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	session, ok := r.s.sessions[tokenHash]
	if !ok {
		return 0, nil
	}
	session.Active = false
	r.s.sessions[tokenHash] = session
	return 1, nil
}

func (r sessionRepo) ListActiveTokenHashes(_ context.Context, userID uuid.UUID) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var hashes []string
	for hash, session := range r.s.sessions {
		if session.UserID == userID && session.Active {
			hashes = append(hashes, hash)
		}
	}
	return hashes, nil
}

func (r sessionRepo) DeactivateAllForUser(_ context.Context, userID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for hash, session := range r.s.sessions {
		if session.UserID == userID && session.Active {
			session.Active = false
			r.s.sessions[hash] = session
			n++
		}
	}
	return n, nil
}

func (r sessionRepo) DeleteExpiredOrInactive(_ context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for hash, session := range r.s.sessions {
		if session.ExpiresAt.Before(now) || !session.Active {
			delete(r.s.sessions, hash)
			n++
		}
	}
	return n, nil
}

type semesterRepo struct{ s *Store }

func (r semesterRepo) Create(_ context.Context, semester *model.Semester) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.semesters {
		if existing.Code == semester.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	if semester.ID == uuid.Nil {
		semester.ID = uuid.New()
	}
	r.s.semesters[semester.ID] = *semester
	return nil
}

func (r semesterRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Semester, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	semester, ok := r.s.semesters[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &semester, nil
}

func (r semesterRepo) List(_ context.Context) ([]model.Semester, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]model.Semester, 0, len(r.s.semesters))
	for _, semester := range r.s.semesters {
		out = append(out, semester)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (r semesterRepo) ListEnded(_ context.Context, now time.Time) ([]model.Semester, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Semester
	for _, semester := range r.s.semesters {
		if semester.Ended(now) {
			out = append(out, semester)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out, nil
}

func (r semesterRepo) FindSuccessor(_ context.Context, semester *model.Semester) (*model.Semester, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var next *model.Semester
	for _, candidate := range r.s.semesters {
		if candidate.Year != semester.Year || !candidate.StartDate.After(semester.EndDate) {
			continue
		}
		if next == nil || candidate.StartDate.Before(next.StartDate) {
			c := candidate
			next = &c
		}
	}
	if next == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return next, nil
}

type courseRepo struct{ s *Store }

func (r courseRepo) Create(_ context.Context, course *model.Course) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.courses {
		if existing.Code == course.Code && existing.SemesterID == course.SemesterID {
			return gorm.ErrDuplicatedKey
		}
	}
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	r.s.courses[course.ID] = *course
	return nil
}

func (r courseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	course, ok := r.s.courses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &course, nil
}

func (r courseRepo) ListBySemester(_ context.Context, semesterID uuid.UUID) ([]model.Course, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Course
	for _, course := range r.s.courses {
		if course.SemesterID == semesterID {
			out = append(out, course)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

type enrollmentRepo struct{ s *Store }

func (r enrollmentRepo) Create(_ context.Context, enrollment *model.Enrollment) error {
	if hook := r.s.OnEnrollmentCreate; hook != nil {
		if err := hook(enrollment); err != nil {
			return err
		}
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.enrollments {
		if e.UserID == enrollment.UserID && e.CourseID == enrollment.CourseID && e.SemesterID == enrollment.SemesterID {
			return gorm.ErrDuplicatedKey
		}
	}
	if enrollment.ID == uuid.Nil {
		enrollment.ID = uuid.New()
	}
	r.s.enrollments = append(r.s.enrollments, *enrollment)
	return nil
}

func (r enrollmentRepo) ListStudentIDsBySemester(_ context.Context, semesterID uuid.UUID) ([]uuid.UUID, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, e := range r.s.enrollments {
		if e.SemesterID != semesterID || seen[e.UserID] {
			continue
		}
		if u, ok := r.s.users[e.UserID]; !ok || u.Role != model.RoleStudent {
			continue
		}
		seen[e.UserID] = true
		ids = append(ids, e.UserID)
	}
	return ids, nil
}

func (r enrollmentRepo) ListByCourse(_ context.Context, courseID uuid.UUID) ([]model.Enrollment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Enrollment
	for _, e := range r.s.enrollments {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

type attendanceRepo struct{ s *Store }

func (r attendanceRepo) Upsert(_ context.Context, record *model.Attendance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	record.Date = model.Day(record.Date)
	for i, existing := range r.s.attendance {
		if existing.UserID == record.UserID && sameUUID(existing.CourseID, record.CourseID) && existing.Date.Equal(record.Date) {
			record.ID = existing.ID
			r.s.attendance[i] = *record
			return nil
		}
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	r.s.attendance = append(r.s.attendance, *record)
	return nil
}

func (r attendanceRepo) List(_ context.Context, filter repository.AttendanceFilter) ([]model.Attendance, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Attendance
	for _, a := range r.s.attendance {
		if filter.UserID != nil && a.UserID != *filter.UserID {
			continue
		}
		if filter.CourseID != nil && (a.CourseID == nil || *a.CourseID != *filter.CourseID) {
			continue
		}
		if filter.SemesterID != nil && (a.SemesterID == nil || *a.SemesterID != *filter.SemesterID) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func sameOptional(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

func sameUUID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
