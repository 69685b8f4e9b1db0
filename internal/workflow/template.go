// template.go implements the admin-managed questionnaire template operations.
// Templates sit outside the state machines; their operations are plain
// authorized CRUD with audit entries.
package workflow

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/lib/pq"
	"github.com/vendorguard/vendorguard/internal/authz"
	"github.com/vendorguard/vendorguard/internal/db/models"
)

// isForeignKeyViolation matches PostgreSQL error 23503 (foreign_key_violation).
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

// isUniqueViolation matches PostgreSQL error 23505 (unique_violation).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// CreateTemplateInput carries the request to create a questionnaire template.
type CreateTemplateInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Version     int    `json:"version"`
}

// UpdateTemplateInput carries mutable template fields. Nil fields are left
// unchanged.
type UpdateTemplateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Version     *int    `json:"version"`
}

// CreateTemplate creates a questionnaire template in the actor's org.
func (s *Service) CreateTemplate(ctx context.Context, actor authz.Actor, in CreateTemplateInput) (*models.Template, error) {
	if err := authz.Authorize(actor, authz.ActionCreateTemplate, authz.Resource{Type: "template", OrgID: actor.OrgID}); err != nil {
		return nil, Unauthorized(err)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, Validationf("Template name must not be empty")
	}
	version := in.Version
	if version == 0 {
		version = 1
	}
	if version < 1 {
		return nil, Validationf("Template version must be positive")
	}

	t := &models.Template{
		OrgID:       actor.OrgID,
		Name:        name,
		Description: in.Description,
		Version:     version,
	}
	if err := s.templates.Create(ctx, t); err != nil {
		return nil, Internalf(err, "failed to create template")
	}

	s.recorder.Record(ctx, auditEvent(actor, "create_template", "template", t.ID, map[string]interface{}{
		"name":    t.Name,
		"version": t.Version,
	}))

	return t, nil
}

// GetTemplate retrieves a template within the actor's org.
func (s *Service) GetTemplate(ctx context.Context, actor authz.Actor, id string) (*models.Template, error) {
	t, err := s.templates.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		return nil, Internalf(err, "failed to load template")
	}
	if t == nil {
		return nil, NotFoundf("Template not found")
	}
	return t, nil
}

// ListTemplates lists templates in the actor's org.
func (s *Service) ListTemplates(ctx context.Context, actor authz.Actor, limit, offset int) ([]*models.Template, error) {
	ts, err := s.templates.List(ctx, actor.OrgID, limit, offset)
	if err != nil {
		return nil, Internalf(err, "failed to list templates")
	}
	return ts, nil
}

// UpdateTemplate applies a partial update to a template.
func (s *Service) UpdateTemplate(ctx context.Context, actor authz.Actor, id string, in UpdateTemplateInput) (*models.Template, error) {
	t, err := s.templates.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		return nil, Internalf(err, "failed to load template")
	}
	if t == nil {
		return nil, NotFoundf("Template not found")
	}

	if err := authz.Authorize(actor, authz.ActionUpdateTemplate, authz.Resource{Type: "template", ID: t.ID, OrgID: t.OrgID}); err != nil {
		return nil, Unauthorized(err)
	}

	changed := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, Validationf("Template name must not be empty")
		}
		t.Name = name
		changed["name"] = name
	}
	if in.Description != nil {
		t.Description = *in.Description
		changed["description"] = *in.Description
	}
	if in.Version != nil {
		if *in.Version < 1 {
			return nil, Validationf("Template version must be positive")
		}
		t.Version = *in.Version
		changed["version"] = *in.Version
	}
	if len(changed) == 0 {
		return t, nil
	}

	if err := s.templates.Update(ctx, t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NotFoundf("Template not found")
		}
		return nil, Internalf(err, "failed to update template")
	}

	s.recorder.Record(ctx, auditEvent(actor, "update_template", "template", t.ID, changed))

	return t, nil
}

// DeleteTemplate removes a template. A template still referenced by an
// assessment is protected by the database and surfaces as a conflict.
func (s *Service) DeleteTemplate(ctx context.Context, actor authz.Actor, id string) error {
	t, err := s.templates.GetByID(ctx, actor.OrgID, id)
	if err != nil {
		return Internalf(err, "failed to load template")
	}
	if t == nil {
		return NotFoundf("Template not found")
	}

	if err := authz.Authorize(actor, authz.ActionDeleteTemplate, authz.Resource{Type: "template", ID: t.ID, OrgID: t.OrgID}); err != nil {
		return Unauthorized(err)
	}

	if err := s.templates.Delete(ctx, actor.OrgID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return NotFoundf("Template not found")
		}
		if isForeignKeyViolation(err) {
			return Conflictf("Template is referenced by existing assessments and cannot be deleted")
		}
		return Internalf(err, "failed to delete template")
	}

	s.recorder.Record(ctx, auditEvent(actor, "delete_template", "template", t.ID, map[string]interface{}{
		"name": t.Name,
	}))

	return nil
}
