package model

import (
	"strings"
	"time"
)

// portalIDs maps the admin-facing portal names to their identifiers.
var portalIDs = map[string]string{
	"HRMS":            "hrms",
	"DataHive":        "datahive",
	"Asset Tracker":   "asset-tracker",
	"Finance Tools":   "finance",
	"Project Tracker": "project-tracker",
	"Employee Portal": "employee-portal",
	"Query Tracker":   "query-tracker",
	"Demand / Panel":  "demand-panel",
}

// NormalizePortal converts a display name or identifier into the portal
// identifier. ok is false for unknown portals.
func NormalizePortal(name string) (id string, ok bool) {
	name = strings.TrimSpace(name)
	if v, found := portalIDs[name]; found {
		return v, true
	}
	lower := strings.ToLower(name)
	for _, v := range portalIDs {
		if v == lower {
			return v, true
		}
	}
	return "", false
}

// DirectoryEntry mirrors a row of the MySQL `users` directory table used by HRMS.
type DirectoryEntry struct {
	ID         uint64    `json:"id"`
	ExternalID string    `json:"externalId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// PortalDocKind names an employee-portal document collection.
type PortalDocKind string

const (
	DocDashboard  PortalDocKind = "portal_dashboard"
	DocAttendance PortalDocKind = "portal_attendance"
	DocRequests   PortalDocKind = "portal_requests"
	DocOrg        PortalDocKind = "portal_org"
	DocReports    PortalDocKind = "portal_reports"
)
