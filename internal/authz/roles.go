// Package authz implements the role-based authorization gate. The gate is a pure
// decision function over an immutable role→permission table built once at process
// start, composed with an ordered list of named predicate checks per action.
// Denial is never a fault: it surfaces to the caller as a 403 rejection.
package authz

// Role is one of the three platform roles carried by every resolved actor.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleReviewer Role = "reviewer"
	RoleVendor   Role = "vendor"
)

// AllRoles returns every valid role.
func AllRoles() []Role {
	return []Role{RoleAdmin, RoleReviewer, RoleVendor}
}

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleAdmin, RoleReviewer, RoleVendor:
		return true
	}
	return false
}

// Action names a permission-gated operation.
type Action string

const (
	ActionCreateTemplate    Action = "create_template"
	ActionUpdateTemplate    Action = "update_template"
	ActionDeleteTemplate    Action = "delete_template"
	ActionCreateAssessment  Action = "create_assessment"
	ActionUpdateAssessment  Action = "update_assessment"
	ActionSubmitAssessment  Action = "submit_assessment"
	ActionReviewAssessment  Action = "review_assessment"
	ActionApproveAssessment Action = "approve_assessment"
	ActionCreateVendor      Action = "create_vendor"
	ActionUpdateVendor      Action = "update_vendor"
	ActionCreateReview      Action = "create_review"
	ActionDecideReview      Action = "decide_review"
	ActionRespondRemediation Action = "respond_remediation"
	ActionCloseRemediation  Action = "close_remediation"
	ActionCreateRemediation Action = "create_remediation"
	ActionUploadEvidence    Action = "upload_evidence"
	ActionSaveResponse      Action = "save_response"
	ActionSubmitResponse    Action = "submit_response"
	ActionReadAudit         Action = "read_audit"
)

// permissions is the static role→permission table. It is populated once here
// and never mutated at runtime.
var permissions = map[Role]map[Action]bool{
	RoleAdmin: actionSet(
		ActionCreateTemplate, ActionUpdateTemplate, ActionDeleteTemplate,
		ActionCreateAssessment, ActionUpdateAssessment, ActionSubmitAssessment,
		ActionReviewAssessment, ActionApproveAssessment,
		ActionCreateVendor, ActionUpdateVendor,
		ActionCreateReview, ActionDecideReview,
		ActionRespondRemediation, ActionCloseRemediation, ActionCreateRemediation,
		ActionUploadEvidence, ActionSaveResponse, ActionSubmitResponse,
		ActionReadAudit,
	),
	RoleReviewer: actionSet(
		ActionReviewAssessment, ActionApproveAssessment,
		ActionCreateReview, ActionDecideReview,
		ActionCloseRemediation, ActionCreateRemediation,
	),
	RoleVendor: actionSet(
		ActionSubmitAssessment,
		ActionRespondRemediation,
		ActionUploadEvidence,
		ActionSaveResponse, ActionSubmitResponse,
	),
}

func actionSet(actions ...Action) map[Action]bool {
	set := make(map[Action]bool, len(actions))
	for _, a := range actions {
		set[a] = true
	}
	return set
}

// Allowed reports whether role may perform action according to the static
// permission table. It is purely a function of its inputs.
func Allowed(role Role, action Action) bool {
	return permissions[role][action]
}
