package dto

// SLAPerformanceResponse reports compliance for one policy. Rate is a
// pointer so an undefined rate (no matching tickets) serializes as null
// rather than a misleading zero.
type SLAPerformanceResponse struct {
	PolicyID        string   `json:"policy_id"`
	PolicyName      string   `json:"policy_name"`
	Priority        string   `json:"priority"`
	TotalTickets    int      `json:"total_tickets"`
	CompliantCount  int      `json:"compliant_tickets"`
	ComplianceRate  *float64 `json:"compliance_rate"`
	ResponseHours   float64  `json:"response_time_hours"`
	ResolutionHours float64  `json:"resolution_time_hours"`
}

// OverviewResponse summarizes activity in a date range.
type OverviewResponse struct {
	StartDate             string               `json:"start_date"`
	EndDate               string               `json:"end_date"`
	TotalTickets          int                  `json:"total_tickets"`
	StatusCounts          map[string]int       `json:"status_counts"`
	PriorityCounts        map[string]int       `json:"priority_counts"`
	OverdueTickets        int                  `json:"overdue_tickets"`
	ResolvedTickets       int                  `json:"resolved_tickets"`
	AvgResolutionHours    *float64             `json:"avg_resolution_hours"`
	AvgFirstResponseHours *float64             `json:"avg_first_response_hours"`
	DailyCreated          []DailyCountResponse `json:"daily_created"`
}

// DailyCountResponse holds one day's creation count.
type DailyCountResponse struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}
