package analytics

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"campus/internal/model"
)

func records(statuses ...model.AttendanceStatus) []model.Attendance {
	out := make([]model.Attendance, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, model.Attendance{Status: s})
	}
	return out
}

func repeat(status model.AttendanceStatus, n int) []model.AttendanceStatus {
	out := make([]model.AttendanceStatus, n)
	for i := range out {
		out[i] = status
	}
	return out
}

func TestAggregate(t *testing.T) {
	const (
		P = model.AttendancePresent
		A = model.AttendanceAbsent
		L = model.AttendanceLate
	)

	tests := []struct {
		name    string
		records []model.Attendance
		want    Summary
	}{
		{"no records", nil, Summary{}},
		{"all present", records(P, P, P), Summary{Total: 3, Present: 3, Percentage: 100}},
		{"one third", records(P, A, L), Summary{Total: 3, Present: 1, Absent: 1, Late: 1, Percentage: 33.33}},
		{"two thirds rounds up", records(P, P, A), Summary{Total: 3, Present: 2, Absent: 1, Percentage: 66.67}},
		{"late is not present", records(L, L, L, P), Summary{Total: 4, Present: 1, Late: 3, Percentage: 25}},
		{"all absent", records(A, A), Summary{Total: 2, Absent: 2, Percentage: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.records)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.Total, got.Present+got.Absent+got.Late)
		})
	}
}

func TestAggregateIsOrderIndependent(t *testing.T) {
	statuses := append(repeat(model.AttendancePresent, 17), repeat(model.AttendanceAbsent, 5)...)
	statuses = append(statuses, repeat(model.AttendanceLate, 3)...)
	base := records(statuses...)
	want := Aggregate(base)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]model.Attendance(nil), base...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, want, Aggregate(shuffled))
	}
	assert.Equal(t, 68.0, want.Percentage)
}

func TestPercentage(t *testing.T) {
	assert.Equal(t, 0.0, Percentage(0, 0))
	assert.Equal(t, 0.0, Percentage(3, 0))
	assert.Equal(t, 14.29, Percentage(1, 7))
	assert.Equal(t, 85.71, Percentage(6, 7))
	assert.Equal(t, 99.99, Percentage(9999, 10000))
	assert.Equal(t, 100.0, Percentage(19999, 20000))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		percentage float64
		want       RiskLevel
	}{
		{0, RiskHigh},
		{74.99, RiskHigh},
		{75, RiskMedium},
		{80, RiskMedium},
		{85, RiskMedium},
		{85.01, RiskLow},
		{100, RiskLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.percentage), "percentage %v", tt.percentage)
	}

	assert.True(t, AtRisk(74.99))
	assert.False(t, AtRisk(75))
	assert.Equal(t, RiskHigh, Summary{}.Risk())
}

func TestAggregateByUser(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()
	in := []model.Attendance{
		{UserID: alice, Status: model.AttendancePresent},
		{UserID: bob, Status: model.AttendanceAbsent},
		{UserID: alice, Status: model.AttendanceLate},
		{UserID: alice, Status: model.AttendancePresent},
	}

	got := AggregateByUser(in)

	assert.Len(t, got, 2)
	assert.Equal(t, Summary{Total: 3, Present: 2, Late: 1, Percentage: 66.67}, got[alice])
	assert.Equal(t, Summary{Total: 1, Absent: 1, Percentage: 0}, got[bob])
}
