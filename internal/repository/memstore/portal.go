package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/hr-portal-backend/internal/model"
	"github.com/iliyamo/hr-portal-backend/internal/repository"
)

// PortalDocs is an in-memory employee-portal document store.
type PortalDocs struct {
	mu   sync.Mutex
	docs map[string]map[string]any
}

func NewPortalDocs() *PortalDocs { return &PortalDocs{docs: map[string]map[string]any{}} }

func (s *PortalDocs) GetOrCreate(_ context.Context, kind model.PortalDocKind, employeeID string, defaults map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := string(kind) + "/" + employeeID
	doc, ok := s.docs[key]
	if !ok {
		now := time.Now().UTC()
		doc = map[string]any{"_id": model.NewID(), "createdAt": now, "updatedAt": now}
		if employeeID != "" {
			doc["employeeId"] = employeeID
		} else {
			doc["scope"] = "global"
		}
		for k, v := range defaults {
			doc[k] = v
		}
		s.docs[key] = doc
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out, nil
}

// Directory is an in-memory HRMS directory.
type Directory struct {
	mu      sync.Mutex
	nextID  uint64
	entries []model.DirectoryEntry
	Err     error
}

func NewDirectory() *Directory { return &Directory{} }

func (d *Directory) Create(_ context.Context, e model.DirectoryEntry, _ string) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return 0, d.Err
	}
	e.Email = model.NormalizeEmail(e.Email)
	for _, x := range d.entries {
		if strings.EqualFold(x.Email, e.Email) {
			return 0, repository.ErrDuplicate
		}
	}
	d.nextID++
	e.ID = d.nextID
	now := time.Now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	d.entries = append(d.entries, e)
	return e.ID, nil
}

func (d *Directory) List(_ context.Context, limit, offset int) ([]model.DirectoryEntry, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Err != nil {
		return nil, d.Err
	}
	out := append([]model.DirectoryEntry(nil), d.entries...)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if offset >= len(out) {
		return []model.DirectoryEntry{}, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
