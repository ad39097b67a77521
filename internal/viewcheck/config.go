package viewcheck

import (
	"time"

	service "github.com/okian/bizmap/internal/app"
	"github.com/okian/bizmap/internal/domain/filter"
	"github.com/okian/bizmap/internal/domain/model"
)

// Config holds configuration for a check run.
type Config struct {
	BaseURL string        // Base URL of the service
	Runs    int           // Number of random selections to check
	Seed    int64         // Seed for the selection generator
	Workers int           // Number of concurrent checks
	Timeout time.Duration // HTTP request timeout
	Verbose bool          // Log every selection
}

// FiltersResponse is the body of GET /api/filters.
type FiltersResponse struct {
	Controls []service.FilterControl `json:"controls"`
	Warnings []service.Warning       `json:"warnings"`
}

// RecordsResponse is the body of GET /api/records.
type RecordsResponse struct {
	Count   int            `json:"count"`
	Records []model.Record `json:"records"`
}

// Case is one generated selection.
type Case struct {
	ID        string
	Index     int
	Selection filter.Selection
}

// Violation is one failed property.
type Violation struct {
	CaseID  string
	Check   string
	Message string
}

// Stats holds run statistics.
type Stats struct {
	Runs           int
	Passed         int
	Failed         int
	EmptyViews     int
	RecordsChecked int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
}
