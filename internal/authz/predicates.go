// predicates.go composes the static permission table with per-action predicate
// checks. Predicates are evaluated in order against a typed (actor, action,
// resource) tuple; the composition rule is first-denial-wins, and the permission
// table itself is always the first predicate. A predicate may also report that it
// is not applicable to the action, in which case evaluation continues.
package authz

import "fmt"

// Actor is the resolved identity attached to every inbound action. The platform
// never authenticates here; it receives an already-authenticated actor and only
// authorizes.
type Actor struct {
	ID    string
	Role  Role
	OrgID string
}

// Resource describes the entity an action targets, for predicates that need
// more than the action name.
type Resource struct {
	Type    string // "assessment", "review", "remediation", "vendor", ...
	ID      string
	OrgID   string
	OwnerID string // acting-party ownership, where relevant
}

// Decision is a single predicate's verdict.
type Decision int

const (
	// NotApplicable means the predicate has no opinion on this action and
	// evaluation continues with the next predicate.
	NotApplicable Decision = iota
	Allow
	Deny
)

// Predicate is a named authorization check.
type Predicate struct {
	Name  string
	Check func(actor Actor, action Action, res Resource) Decision
}

// DeniedError is returned when authorization fails. It carries the name of the
// denying predicate so rejections always name the violated rule.
type DeniedError struct {
	Predicate string
	Actor     Actor
	Action    Action
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("role '%s' is not permitted to perform '%s' (denied by %s)", e.Actor.Role, e.Action, e.Predicate)
}

// predicates is the ordered predicate list. The permission-table check runs
// first; action-specific checks follow and must independently pass, so an
// action like submit_assessment is gated twice (table and role predicate).
var predicates = []Predicate{
	{
		Name: "permission_table",
		Check: func(actor Actor, action Action, _ Resource) Decision {
			if Allowed(actor.Role, action) {
				return Allow
			}
			return Deny
		},
	},
	{
		// Submission is a vendor act regardless of what the generic table says.
		Name: "submit_requires_vendor",
		Check: func(actor Actor, action Action, _ Resource) Decision {
			if action != ActionSubmitAssessment {
				return NotApplicable
			}
			if actor.Role == RoleVendor {
				return Allow
			}
			return Deny
		},
	},
	{
		// Responding to a remediation is likewise vendor-only.
		Name: "respond_requires_vendor",
		Check: func(actor Actor, action Action, _ Resource) Decision {
			if action != ActionRespondRemediation {
				return NotApplicable
			}
			if actor.Role == RoleVendor {
				return Allow
			}
			return Deny
		},
	},
	{
		// Closing a remediation requires reviewer or admin.
		Name: "close_requires_reviewer",
		Check: func(actor Actor, action Action, _ Resource) Decision {
			if action != ActionCloseRemediation {
				return NotApplicable
			}
			if actor.Role == RoleReviewer || actor.Role == RoleAdmin {
				return Allow
			}
			return Deny
		},
	},
	{
		// Tenancy fence: acting on a resource from another org is denied here
		// as defense in depth; repositories additionally filter every query by
		// org so a cross-tenant id is indistinguishable from a missing one.
		Name: "same_org",
		Check: func(actor Actor, _ Action, res Resource) Decision {
			if res.OrgID == "" || actor.OrgID == "" {
				return NotApplicable
			}
			if res.OrgID == actor.OrgID {
				return Allow
			}
			return Deny
		},
	},
}

// Authorize evaluates the ordered predicate list for the given tuple. The first
// Deny wins and is returned as a *DeniedError; NotApplicable predicates are
// skipped. All applicable predicates must allow.
func Authorize(actor Actor, action Action, res Resource) error {
	for _, p := range predicates {
		switch p.Check(actor, action, res) {
		case Deny:
			return &DeniedError{Predicate: p.Name, Actor: actor, Action: action}
		case Allow, NotApplicable:
			// keep evaluating; every applicable predicate must pass
		}
	}
	return nil
}
