// Package analytics holds the pure attendance calculations shared by every read path.
package analytics

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"campus/internal/model"
)

// Risk thresholds, in percent.
const (
	HighRiskBelow  = 75.0
	MediumRiskUpTo = 85.0
)

// RiskLevel classifies an attendance percentage.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// Summary is the reduction of a set of attendance records.
// Present, Absent and Late always add up to Total.
type Summary struct {
	Total      int     `json:"total"`
	Present    int     `json:"present"`
	Absent     int     `json:"absent"`
	Late       int     `json:"late"`
	Percentage float64 `json:"percentage"`
}

// Aggregate counts statuses and computes the present percentage rounded to two decimals.
// The result does not depend on record order.
func Aggregate(records []model.Attendance) Summary {
	var s Summary
	for _, r := range records {
		s.Total++
		switch r.Status {
		case model.AttendancePresent:
			s.Present++
		case model.AttendanceLate:
			s.Late++
		default:
			s.Absent++
		}
	}
	s.Percentage = Percentage(s.Present, s.Total)
	return s
}

// AggregateByUser reduces records per user with Aggregate.
func AggregateByUser(records []model.Attendance) map[uuid.UUID]Summary {
	grouped := make(map[uuid.UUID][]model.Attendance)
	for _, r := range records {
		grouped[r.UserID] = append(grouped[r.UserID], r)
	}
	out := make(map[uuid.UUID]Summary, len(grouped))
	for userID, rs := range grouped {
		out[userID] = Aggregate(rs)
	}
	return out
}

// Percentage returns present/total*100 rounded half away from zero to two decimals, or 0 for no records.
func Percentage(present, total int) float64 {
	if total <= 0 {
		return 0
	}
	return decimal.NewFromInt(int64(present)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2).
		InexactFloat64()
}

// Classify maps a percentage to a risk level: below 75 is HIGH, 75 to 85 inclusive is MEDIUM.
func Classify(percentage float64) RiskLevel {
	switch {
	case percentage < HighRiskBelow:
		return RiskHigh
	case percentage <= MediumRiskUpTo:
		return RiskMedium
	default:
		return RiskLow
	}
}

// AtRisk reports whether a percentage falls below the at-risk threshold.
func AtRisk(percentage float64) bool {
	return Classify(percentage) == RiskHigh
}

// Risk classifies the summary's percentage.
func (s Summary) Risk() RiskLevel {
	return Classify(s.Percentage)
}
