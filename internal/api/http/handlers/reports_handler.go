package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/maintenance-service/internal/api/dto"
	"github.com/spec-kit/maintenance-service/internal/service"
	"github.com/spec-kit/maintenance-service/pkg/apperrors"
)

// defaultReportDays is the report window when no range is supplied.
const defaultReportDays = 30

// ReportsHandler serves aggregated reporting endpoints for staff.
type ReportsHandler struct {
	service *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reportService *service.ReportService) *ReportsHandler {
	return &ReportsHandler{service: reportService}
}

// SLAPerformance GET /staff/reports/sla.
func (h *ReportsHandler) SLAPerformance(c *fiber.Ctx) error {
	from, to, err := parseReportRange(c)
	if err != nil {
		return err
	}
	performances, err := h.service.SLAPerformance(c.UserContext(), from, to)
	if err != nil {
		return err
	}

	items := make([]dto.SLAPerformanceResponse, 0, len(performances))
	for _, perf := range performances {
		item := dto.SLAPerformanceResponse{
			PolicyID:        perf.Policy.ID,
			PolicyName:      perf.Policy.Name,
			Priority:        string(perf.Policy.Priority),
			TotalTickets:    perf.Total,
			CompliantCount:  perf.Compliant,
			ResponseHours:   perf.Policy.ResponseTime.Hours(),
			ResolutionHours: perf.Policy.ResolutionTime.Hours(),
		}
		if perf.HasRate {
			rate := perf.Rate
			item.ComplianceRate = &rate
		}
		items = append(items, item)
	}
	return c.JSON(fiber.Map{"data": items, "meta": rangeMeta(from, to)})
}

// Overview GET /staff/reports/overview.
func (h *ReportsHandler) Overview(c *fiber.Ctx) error {
	from, to, err := parseReportRange(c)
	if err != nil {
		return err
	}
	overview, err := h.service.BuildOverview(c.UserContext(), from, to)
	if err != nil {
		return err
	}

	resp := dto.OverviewResponse{
		StartDate:       from.Format("2006-01-02"),
		EndDate:         to.Format("2006-01-02"),
		TotalTickets:    overview.TotalTickets,
		StatusCounts:    make(map[string]int, len(overview.StatusCounts)),
		PriorityCounts:  make(map[string]int, len(overview.PriorityCounts)),
		OverdueTickets:  overview.OverdueCount,
		ResolvedTickets: overview.ResolvedCount,
	}
	for status, count := range overview.StatusCounts {
		resp.StatusCounts[string(status)] = count
	}
	for priority, count := range overview.PriorityCounts {
		resp.PriorityCounts[string(priority)] = count
	}
	if overview.ResolvedCount > 0 {
		hours := overview.AvgResolution.Hours()
		resp.AvgResolutionHours = &hours
	}
	if overview.RespondedCount > 0 {
		hours := overview.AvgFirstResp.Hours()
		resp.AvgFirstResponseHours = &hours
	}
	for _, day := range overview.DailyCreated {
		resp.DailyCreated = append(resp.DailyCreated, dto.DailyCountResponse{
			Date:  day.Date,
			Count: day.Count,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

func parseReportRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	now := time.Now()
	to := now
	from := now.AddDate(0, 0, -defaultReportDays)

	if val := c.Query("from"); val != "" {
		parsed, err := time.Parse("2006-01-02", val)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.NewValidationError("invalid from date", map[string]any{"from": val})
		}
		from = parsed
	}
	if val := c.Query("to"); val != "" {
		parsed, err := time.Parse("2006-01-02", val)
		if err != nil {
			return time.Time{}, time.Time{}, apperrors.NewValidationError("invalid to date", map[string]any{"to": val})
		}
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, apperrors.NewValidationError("to must not precede from", nil)
	}
	return from, to, nil
}

func rangeMeta(from, to time.Time) fiber.Map {
	return fiber.Map{
		"from": from.Format("2006-01-02"),
		"to":   to.Format("2006-01-02"),
	}
}
