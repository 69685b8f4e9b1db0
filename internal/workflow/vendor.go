package workflow

import (
	"context"
	"strings"

	"github.com/vendorguard/vendorguard/internal/authz"
	"github.com/vendorguard/vendorguard/internal/db/models"
	"github.com/vendorguard/vendorguard/internal/db/repositories"
	"github.com/vendorguard/vendorguard/internal/telemetry"
)

// CreateVendorInput carries the request to onboard a vendor.
type CreateVendorInput struct {
	Name         string `json:"name" binding:"required"`
	ContactEmail string `json:"contact_email"`
	Tier         int    `json:"tier"`
}

// UpdateVendorInput carries mutable vendor fields. Nil fields are left unchanged.
type UpdateVendorInput struct {
	Name         *string `json:"name"`
	ContactEmail *string `json:"contact_email"`
	Tier         *int    `json:"tier"`
}

// CreateVendor onboards a new vendor in status "active".
func (s *Service) CreateVendor(ctx context.Context, actor authz.Actor, in CreateVendorInput) (*models.Vendor, error) {
	if err := authz.Authorize(actor, authz.ActionCreateVendor, authz.Resource{Type: "vendor", OrgID: actor.OrgID}); err != nil {
		return nil, Unauthorized(err)
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, Validationf("Vendor name is required")
	}
	tier := in.Tier
	if tier == 0 {
		tier = 3
	}
	if tier < 1 || tier > 3 {
		return nil, Validationf("Vendor tier must be between 1 and 3")
	}

	v := &models.Vendor{
		OrgID:        actor.OrgID,
		Name:         strings.TrimSpace(in.Name),
		ContactEmail: strings.TrimSpace(in.ContactEmail),
		Tier:         tier,
		Status:       models.VendorStatusActive,
	}
	if err := s.vendors.Create(ctx, v); err != nil {
		return nil, Internalf(err, "failed to create vendor")
	}

	s.recorder.Record(ctx, auditEvent(actor, "create_vendor", "vendor", v.ID, map[string]interface{}{
		"name": v.Name,
		"tier": v.Tier,
	}))

	return v, nil
}

// GetVendor loads one vendor scoped to the actor's org.
func (s *Service) GetVendor(ctx context.Context, actor authz.Actor, id string) (*models.Vendor, error) {
	v, err := s.vendors.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		return nil, Internalf(err, "failed to load vendor")
	}
	if v == nil {
		return nil, NotFoundf("Vendor not found")
	}
	return v, nil
}

// ListVendors lists vendors in the actor's org.
func (s *Service) ListVendors(ctx context.Context, actor authz.Actor, filters repositories.VendorFilters, limit, offset int) ([]*models.Vendor, error) {
	list, err := s.vendors.List(ctx, actor.OrgID, filters, limit, offset)
	if err != nil {
		return nil, Internalf(err, "failed to list vendors")
	}
	return list, nil
}

// UpdateVendor applies partial updates to vendor profile fields. Status changes
// go through ChangeVendorStatus instead.
func (s *Service) UpdateVendor(ctx context.Context, actor authz.Actor, id string, in UpdateVendorInput) (*models.Vendor, error) {
	v, err := s.vendors.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		return nil, Internalf(err, "failed to load vendor")
	}
	if v == nil {
		return nil, NotFoundf("Vendor not found")
	}

	if err := authz.Authorize(actor, authz.ActionUpdateVendor, authz.Resource{Type: "vendor", ID: v.ID, OrgID: v.OrgID}); err != nil {
		return nil, Unauthorized(err)
	}

	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, Validationf("Vendor name is required")
		}
		v.Name = strings.TrimSpace(*in.Name)
	}
	if in.ContactEmail != nil {
		v.ContactEmail = strings.TrimSpace(*in.ContactEmail)
	}
	if in.Tier != nil {
		if *in.Tier < 1 || *in.Tier > 3 {
			return nil, Validationf("Vendor tier must be between 1 and 3")
		}
		v.Tier = *in.Tier
	}

	if err := s.vendors.Update(ctx, v); err != nil {
		return nil, Internalf(err, "failed to update vendor")
	}

	s.recorder.Record(ctx, auditEvent(actor, "update_vendor", "vendor", v.ID, map[string]interface{}{
		"name": v.Name,
		"tier": v.Tier,
	}))

	return v, nil
}

// ChangeVendorStatus moves the vendor along its lifecycle. Same-status is an
// idempotent no-op; an illegal edge is a conflict naming the valid targets.
func (s *Service) ChangeVendorStatus(ctx context.Context, actor authz.Actor, id string, target models.VendorStatus) (*models.Vendor, error) {
	switch target {
	case models.VendorStatusActive, models.VendorStatusSuspended, models.VendorStatusOffboarded:
	default:
		return nil, Validationf("Unknown vendor status '%s'", target)
	}

	v, err := s.vendors.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		return nil, Internalf(err, "failed to load vendor")
	}
	if v == nil {
		return nil, NotFoundf("Vendor not found")
	}

	if err := authz.Authorize(actor, authz.ActionUpdateVendor, authz.Resource{Type: "vendor", ID: v.ID, OrgID: v.OrgID}); err != nil {
		return nil, Unauthorized(err)
	}

	if target == v.Status {
		return v, nil
	}

	if ok, reason := v.CanTransitionTo(target); !ok {
		telemetry.WorkflowTransitionConflictsTotal.WithLabelValues("vendor").Inc()
		return nil, Conflictf("%s", reason)
	}

	applied, err := s.vendors.UpdateStatusCAS(ctx, actor.OrgID, v.ID, v.Status, target)
	if err != nil {
		return nil, Internalf(err, "failed to update vendor status")
	}
	if !applied {
		telemetry.WorkflowTransitionConflictsTotal.WithLabelValues("vendor").Inc()
		return nil, Conflictf("Vendor status changed concurrently. Re-read and retry.")
	}

	previous := v.Status
	v.Status = target
	telemetry.WorkflowTransitionsTotal.WithLabelValues("vendor", string(previous), string(target)).Inc()

	s.recorder.Record(ctx, auditEvent(actor, "change_vendor_status", "vendor", v.ID, map[string]interface{}{
		"previous_status": string(previous),
		"new_status":      string(target),
	}))

	return v, nil
}
