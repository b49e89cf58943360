package models

import (
	"time"

	"github.com/lib/pq"
)

// SafetyReport is an incident reported to a neighborhood.
type SafetyReport struct {
	ID                 string         `db:"id" json:"id"`
	Title              string         `db:"title" json:"title"`
	Description        string         `db:"description" json:"description"`
	Type               string         `db:"type" json:"type"`
	Severity           string         `db:"severity" json:"severity"`
	Status             string         `db:"status" json:"status"`
	Address            string         `db:"address" json:"address"`
	Latitude           float64        `db:"latitude" json:"lat"`
	Longitude          float64        `db:"longitude" json:"lng"`
	ReporterID         string         `db:"reporter_id" json:"reporterId,omitempty"`
	ReporterName       string         `db:"reporter_name" json:"reporterName,omitempty"`
	NeighborhoodID     string         `db:"neighborhood_id" json:"neighborhoodId"`
	IsAnonymous        bool           `db:"is_anonymous" json:"isAnonymous"`
	IsVerified         bool           `db:"is_verified" json:"isVerified"`
	VerifiedBy         string         `db:"verified_by" json:"verifiedBy,omitempty"`
	Images             pq.StringArray `db:"images" json:"images"`
	Tags               pq.StringArray `db:"tags" json:"tags"`
	AcknowledgedCount  int            `db:"acknowledged_count" json:"acknowledgedCount"`
	PoliceReported     bool           `db:"police_reported" json:"policeReported"`
	PoliceReportNumber string         `db:"police_report_number" json:"policeReportNumber,omitempty"`
	IncidentAt         time.Time      `db:"incident_at" json:"incidentDateTime"`
	CreatedAt          time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updatedAt"`
}

// Redacted hides the reporter on anonymous reports.
func (r SafetyReport) Redacted() SafetyReport {
	if r.IsAnonymous {
		r.ReporterID = ""
		r.ReporterName = ""
	}
	return r
}

// SafetyFilter narrows a safety report query. Empty fields match everything.
type SafetyFilter struct {
	NeighborhoodID string
	Type           string
	Severity       string
	Status         string
	Limit          int
	Offset         int
}

// SafetyReportUpdate carries the fields a reporter or moderator may edit.
// Nil means unchanged.
type SafetyReportUpdate struct {
	Title              *string
	Description        *string
	Status             *string
	Tags               []string
	PoliceReported     *bool
	PoliceReportNumber *string
}

// SafetyComment is a follow-up posted on a report.
type SafetyComment struct {
	ID          string    `db:"id" json:"id"`
	ReportID    string    `db:"report_id" json:"reportId"`
	AuthorID    string    `db:"author_id" json:"authorId,omitempty"`
	AuthorName  string    `db:"author_name" json:"authorName,omitempty"`
	Content     string    `db:"content" json:"content"`
	IsAnonymous bool      `db:"is_anonymous" json:"isAnonymous"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Redacted hides the author of an anonymous comment.
func (c SafetyComment) Redacted() SafetyComment {
	if c.IsAnonymous {
		c.AuthorID = ""
		c.AuthorName = ""
	}
	return c
}

// SafetyStats summarizes the reports of a neighborhood over a time window.
type SafetyStats struct {
	TimeframeDays int            `json:"timeframe"`
	Total         int            `json:"totalReports"`
	ByType        map[string]int `json:"typeBreakdown"`
	BySeverity    map[string]int `json:"severityBreakdown"`
	ByStatus      map[string]int `json:"statusBreakdown"`
}
