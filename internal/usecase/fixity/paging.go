package fixity

import "github.com/artefactual/fixity/internal/ports"

// CursorPaging follows meta.next until the service stops announcing one.
type CursorPaging struct{}

func (CursorPaging) First() ports.PageRequest {
	return ports.PageRequest{}
}

func (CursorPaging) Next(_ ports.PageRequest, page ports.CatalogPage) (ports.PageRequest, bool) {
	if page.Meta.Next == "" || len(page.Objects) == 0 {
		return ports.PageRequest{}, false
	}
	return ports.PageRequest{Cursor: page.Meta.Next}, true
}

// OffsetPaging walks the catalog with offset/limit against total_count, for
// services that do not return a usable next link. A zero Limit lets the
// service pick its page size.
type OffsetPaging struct {
	Limit int
}

func (p OffsetPaging) First() ports.PageRequest {
	return ports.PageRequest{Limit: p.Limit}
}

func (p OffsetPaging) Next(current ports.PageRequest, page ports.CatalogPage) (ports.PageRequest, bool) {
	if len(page.Objects) == 0 {
		return ports.PageRequest{}, false
	}
	offset := current.Offset + len(page.Objects)
	if offset >= page.Meta.TotalCount {
		return ports.PageRequest{}, false
	}
	return ports.PageRequest{Offset: offset, Limit: current.Limit}, true
}
