package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/hr-portal-backend/internal/model"
)

// DefaultEmployeeID addresses the demo document when no employee is given.
const DefaultEmployeeID = "default"

// Portals serves the employee-portal documents and the HRMS directory.
type Portals struct {
	docs      PortalDocStore
	directory Directory
	log       *zap.Logger
}

// NewPortals builds the portal service. directory may be nil when MySQL is
// not configured.
func NewPortals(docs PortalDocStore, directory Directory, log *zap.Logger) *Portals {
	if log == nil {
		log = zap.NewNop()
	}
	return &Portals{docs: docs, directory: directory, log: log}
}

// EmployeeDocument returns the document of kind for the employee, creating it
// from defaults on first access. Org and report documents are shared and
// ignore employeeID.
func (p *Portals) EmployeeDocument(ctx context.Context, kind model.PortalDocKind, employeeID string) (map[string]any, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		employeeID = DefaultEmployeeID
	}
	var defaults map[string]any
	switch kind {
	case model.DocDashboard:
		defaults = defaultDashboard()
	case model.DocAttendance:
		defaults = map[string]any{"attendanceLast7Days": weekTrend()}
	case model.DocRequests:
		defaults = defaultRequests()
	case model.DocOrg:
		defaults, employeeID = defaultOrg(), ""
	case model.DocReports:
		defaults, employeeID = defaultReports(), ""
	default:
		return nil, invalid("kind", "Unknown portal document")
	}
	doc, err := p.docs.GetOrCreate(ctx, kind, employeeID, defaults)
	if err != nil {
		return nil, fmt.Errorf("portal document %s: %w", kind, err)
	}
	return doc, nil
}

// DirectoryEnabled reports whether the HRMS directory is configured.
func (p *Portals) DirectoryEnabled() bool { return p.directory != nil }

// Employees lists the HRMS directory. Without a directory it returns an
// empty list.
func (p *Portals) Employees(ctx context.Context, limit, offset int) ([]model.DirectoryEntry, error) {
	if p.directory == nil {
		return []model.DirectoryEntry{}, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	out, err := p.directory.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list directory: %w", err)
	}
	return out, nil
}

type row = map[string]any

func weekTrend() []row {
	return []row{
		{"day": "Mon", "status": "Present", "hours": 8.2},
		{"day": "Tue", "status": "Present", "hours": 7.9},
		{"day": "Wed", "status": "WFH", "hours": 8.5},
		{"day": "Thu", "status": "Present", "hours": 8.1},
		{"day": "Fri", "status": "Present", "hours": 6.4},
		{"day": "Sat", "status": "Weekend", "hours": 0},
		{"day": "Sun", "status": "Weekend", "hours": 0},
	}
}

func recentRequests() []row {
	return []row{
		{"id": "REQ-2831", "type": "Leave", "status": "Approved", "submitted": "Jan 12", "details": "2 days - Personal errand"},
		{"id": "REQ-2842", "type": "WFH", "status": "Pending", "submitted": "Jan 15", "details": "Client calls from home"},
		{"id": "EXP-9921", "type": "Expense", "status": "Paid", "submitted": "Jan 08", "details": "Client dinner"},
	}
}

func defaultDashboard() map[string]any {
	return map[string]any{
		"quickStats": row{
			"leaveBalance":    12,
			"upcomingShift":   "09:30 AM Tomorrow",
			"pendingRequests": 1,
			"lastPayout":      "Jan 5, 2025",
		},
		"attendanceTrend": weekTrend(),
		"announcements": []row{
			{"id": "ann1", "title": "FY25 Kickoff Townhall", "date": "2025-01-21", "type": "event", "audience": "All employees"},
			{"id": "ann2", "title": "Cybersecurity Refresher Due Friday", "date": "2025-01-17", "type": "reminder", "audience": "Product & Tech"},
			{"id": "ann3", "title": "People Pulse Survey Results", "date": "2025-01-15", "type": "update", "audience": "Company-wide"},
		},
		"requestHistory": recentRequests(),
		"assets": []row{
			{"name": `MacBook Pro 14"`, "tag": "IT-45821", "status": "In Use"},
			{"name": "Access Card HQ-12F", "tag": "SEC-1893", "status": "In Use"},
		},
		"learningJourneys": []row{
			{"id": "lj1", "title": "AI for HR Leaders", "progress": 68, "due": "Feb 28", "badge": "In progress"},
			{"id": "lj2", "title": "Advanced Presentation Storytelling", "progress": 42, "due": "Mar 12", "badge": "New"},
		},
		"kudos":               []row{},
		"communityHighlights": []row{},
	}
}

func defaultRequests() map[string]any {
	return map[string]any{
		"leaveBalances": []row{
			{"type": "Casual Leave", "balance": 4},
			{"type": "Sick Leave", "balance": 3},
			{"type": "Earned Leave", "balance": 5},
			{"type": "Work From Home", "balance": 2},
			{"type": "Compensatory Off", "balance": 1},
			{"type": "LOP", "balance": 0},
		},
		"recentRequests": recentRequests(),
	}
}

func defaultOrg() map[string]any {
	return map[string]any{
		"departments": []row{
			{
				"id":          "engineering",
				"name":        "Engineering & Product",
				"description": "Builds core platform capabilities and product experiences.",
				"headcount":   58,
				"cxo":         row{"name": "Ananya Iyer", "title": "Chief Technology Officer"},
			},
			{
				"id":          "people",
				"name":        "People & Culture",
				"description": "Talent management, engagement and compliance.",
				"headcount":   24,
				"cxo":         row{"name": "Leena Prakash", "title": "Chief People Officer"},
			},
		},
	}
}

func defaultReports() map[string]any {
	return map[string]any{
		"reports": []row{
			{"id": "attendance", "title": "Attendance history", "description": "Daily presence, late marks, WFH logs.", "formats": []string{"CSV", "PDF"}},
			{"id": "expenses", "title": "Expense submissions", "description": "All non-advance and advance-based claims.", "formats": []string{"CSV", "XLSX"}},
			{"id": "requests", "title": "Leave & request log", "description": "Leaves, WFH, and support tickets filed.", "formats": []string{"CSV"}},
		},
	}
}
