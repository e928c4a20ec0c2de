package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/hr-portal-backend/internal/model"
	"github.com/iliyamo/hr-portal-backend/internal/repository/memstore"
)

func TestPortals_EmployeeDocument(t *testing.T) {
	p := NewPortals(memstore.NewPortalDocs(), nil, nil)
	ctx := context.Background()

	doc, err := p.EmployeeDocument(ctx, model.DocDashboard, "")
	require.NoError(t, err)
	assert.NotEmpty(t, doc)

	again, err := p.EmployeeDocument(ctx, model.DocDashboard, DefaultEmployeeID)
	require.NoError(t, err)
	assert.Equal(t, doc, again)

	for _, kind := range []model.PortalDocKind{model.DocAttendance, model.DocRequests, model.DocOrg, model.DocReports} {
		doc, err := p.EmployeeDocument(ctx, kind, "E1")
		require.NoError(t, err, kind)
		assert.NotEmpty(t, doc, kind)
	}

	_, err = p.EmployeeDocument(ctx, "portal_payroll", "E1")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestPortals_Employees(t *testing.T) {
	ctx := context.Background()

	off := NewPortals(memstore.NewPortalDocs(), nil, nil)
	assert.False(t, off.DirectoryEnabled())
	list, err := off.Employees(ctx, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	dir := memstore.NewDirectory()
	for _, name := range []string{"Cleo", "Abe", "Bea"} {
		_, err := dir.Create(ctx, model.DirectoryEntry{Name: name, Email: name + "@acme.io", Role: model.RoleUser}, "")
		require.NoError(t, err)
	}
	on := NewPortals(memstore.NewPortalDocs(), dir, nil)
	assert.True(t, on.DirectoryEnabled())

	list, err = on.Employees(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Abe", list[0].Name)

	list, err = on.Employees(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Cleo", list[0].Name)
}
