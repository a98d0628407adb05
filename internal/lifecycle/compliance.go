package lifecycle

import (
	"math"

	"github.com/spec-kit/maintenance-service/internal/domain"
)

// Compliance summarizes how a set of tickets performed against one policy.
// Unresolved tickets count toward Total but can never be compliant.
type Compliance struct {
	Compliant int
	Total     int
	Rate      float64
}

// ComplianceRate computes SLA compliance for the tickets associated with
// policy. A ticket is compliant only when it was resolved within the
// policy's resolution time. The rate is a percentage rounded to one
// decimal place; ok is false when no ticket matched the policy, in which
// case the rate is undefined and must not be read as 0 or 100.
func ComplianceRate(tickets []domain.Ticket, policy domain.SLAPolicy) (Compliance, bool) {
	var result Compliance
	for i := range tickets {
		t := &tickets[i]
		if t.SLAPolicyID == nil || *t.SLAPolicyID != policy.ID {
			continue
		}
		result.Total++
		elapsed, resolved := t.TimeToResolution()
		if resolved && elapsed <= policy.ResolutionTime {
			result.Compliant++
		}
	}
	if result.Total == 0 {
		return result, false
	}
	result.Rate = math.Round(float64(result.Compliant)/float64(result.Total)*1000) / 10
	return result, true
}
