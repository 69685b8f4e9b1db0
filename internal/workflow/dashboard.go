// dashboard.go implements the org-scoped summary counts behind the dashboard.
package workflow

import (
	"context"

	"github.com/vendorguard/vendorguard/internal/authz"
)

// DashboardStats summarizes the actor's org for the dashboard.
type DashboardStats struct {
	TotalAssessments  int `json:"total_assessments"`
	TotalReviews      int `json:"total_reviews"`
	TotalRemediations int `json:"total_remediations"`
}

// GetDashboardStats counts the org's assessments, reviews, and remediations.
func (s *Service) GetDashboardStats(ctx context.Context, actor authz.Actor) (*DashboardStats, error) {
	stats := &DashboardStats{}
	var err error

	if stats.TotalAssessments, err = s.assessments.CountByOrg(ctx, actor.OrgID); err != nil {
		return nil, Internalf(err, "failed to count assessments")
	}
	if stats.TotalReviews, err = s.reviews.CountByOrg(ctx, actor.OrgID); err != nil {
		return nil, Internalf(err, "failed to count reviews")
	}
	if stats.TotalRemediations, err = s.remediations.CountByOrg(ctx, actor.OrgID); err != nil {
		return nil, Internalf(err, "failed to count remediations")
	}

	return stats, nil
}
