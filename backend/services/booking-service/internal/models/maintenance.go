package models

import "time"

const (
	MaintenancePending    = "pending"
	MaintenanceInProgress = "in_progress"
	MaintenanceResolved   = "resolved"
)

// MaintenanceReport is an issue raised against a charger.
type MaintenanceReport struct {
	ID               int64      `db:"report_id" json:"id"`
	ChargerID        int64      `db:"chargerid" json:"charger_id"`
	ReportedBy       int64      `db:"reported_by" json:"reported_by"`
	IssueDescription string     `db:"issue_description" json:"issue_description"`
	Status           string     `db:"status" json:"status"`
	AssignedTo       *int64     `db:"assigned_to" json:"assigned_to,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt       *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
	Location         string     `db:"location" json:"location,omitempty"`
}
