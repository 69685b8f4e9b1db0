// Package models - vendor.go defines the Vendor model representing a third party
// being assessed, with a guarded lifecycle status.
package models

import "time"

// VendorStatus represents the lifecycle status of a vendor relationship.
type VendorStatus string

const (
	VendorStatusActive     VendorStatus = "active"
	VendorStatusSuspended  VendorStatus = "suspended"
	VendorStatusOffboarded VendorStatus = "offboarded"
)

// vendorTransitions is the legal edge set for vendor status changes.
// Offboarded is terminal.
var vendorTransitions = map[VendorStatus][]VendorStatus{
	VendorStatusActive:     {VendorStatusSuspended, VendorStatusOffboarded},
	VendorStatusSuspended:  {VendorStatusActive, VendorStatusOffboarded},
	VendorStatusOffboarded: {},
}

// Vendor represents a third-party vendor under assessment by an organization.
type Vendor struct {
	ID           string       `db:"id" json:"id"`
	OrgID        string       `db:"org_id" json:"org_id"`
	Name         string       `db:"name" json:"name"`
	ContactEmail string       `db:"contact_email" json:"contact_email"`
	Tier         int          `db:"tier" json:"tier"` // 1 (critical) .. 3 (low touch)
	Status       VendorStatus `db:"status" json:"status"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// CanTransitionTo reports whether the vendor status may move to target.
// A same-status request is a valid no-op.
func (v *Vendor) CanTransitionTo(target VendorStatus) (bool, string) {
	if target == v.Status {
		return true, ""
	}
	for _, next := range vendorTransitions[v.Status] {
		if next == target {
			return true, ""
		}
	}
	return false, "Cannot change vendor status from '" + string(v.Status) + "' to '" + string(target) + "'. Valid targets: " + joinVendorStatuses(vendorTransitions[v.Status])
}

func joinVendorStatuses(ss []VendorStatus) string {
	if len(ss) == 0 {
		return "none"
	}
	out := ""
	for i, s := range ss {
		if i > 0 {
			out += ", "
		}
		out += string(s)
	}
	return out
}
