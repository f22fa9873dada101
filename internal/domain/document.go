package domain

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Document is the multi-page editor state. Every operation in this package
// returns a new Document; a value handed out is never modified afterwards,
// so it can be shared with the undo history by reference.
type Document struct {
	Pages         []Page `json:"pages"`
	CurrentPageID string `json:"currentPageId"`
}

// NewDocument returns a document with a single empty page.
func NewDocument() Document {
	p := NewPage(uuid.New().String(), "Page 1")
	return Document{Pages: []Page{p}, CurrentPageID: p.ID}
}

// CurrentPage returns the active page.
func (d Document) CurrentPage() (Page, bool) {
	if i := d.pageIndex(d.CurrentPageID); i >= 0 {
		return d.Pages[i], true
	}
	return Page{}, false
}

// Page returns the page with the given id.
func (d Document) Page(id string) (Page, bool) {
	if i := d.pageIndex(id); i >= 0 {
		return d.Pages[i], true
	}
	return Page{}, false
}

// Clone returns a deep copy of d.
func (d Document) Clone() Document {
	pages := make([]Page, len(d.Pages))
	for i, p := range d.Pages {
		pages[i] = p.clone()
	}
	return Document{Pages: pages, CurrentPageID: d.CurrentPageID}
}

func (d Document) pageIndex(id string) int {
	for i, p := range d.Pages {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// UpdateCurrentPage applies fn to a private copy of the current page and
// returns the resulting document. Without a current page the document is
// returned unchanged.
func UpdateCurrentPage(d Document, fn func(p *Page)) Document {
	i := d.pageIndex(d.CurrentPageID)
	if i < 0 {
		return d
	}
	next := Document{Pages: slices.Clone(d.Pages), CurrentPageID: d.CurrentPageID}
	p := next.Pages[i].clone()
	fn(&p)
	next.Pages[i] = p
	return next
}

// mutateCurrentPage is UpdateCurrentPage for operations where a missing page
// is an invariant violation. If fn fails, d is returned untouched.
func mutateCurrentPage(d Document, fn func(p *Page) error) (Document, error) {
	i := d.pageIndex(d.CurrentPageID)
	if i < 0 {
		return d, ErrNoCurrentPage
	}
	p := d.Pages[i].clone()
	if err := fn(&p); err != nil {
		return d, err
	}
	next := Document{Pages: slices.Clone(d.Pages), CurrentPageID: d.CurrentPageID}
	next.Pages[i] = p
	return next, nil
}

// ── pages ──────────────────────────────────────────────────

// AddPage appends an empty page and makes it current.
func AddPage(d Document, name string) (Document, string) {
	if name == "" {
		name = fmt.Sprintf("Page %d", len(d.Pages)+1)
	}
	p := NewPage(uuid.New().String(), name)
	next := resetInteraction(d)
	next.Pages = append(slices.Clone(next.Pages), p)
	next.CurrentPageID = p.ID
	return next, p.ID
}

// SwitchPage makes id the current page. Unknown ids are ignored. Any
// gesture in progress on the page being left is dropped.
func SwitchPage(d Document, id string) Document {
	if d.pageIndex(id) < 0 || id == d.CurrentPageID {
		return d
	}
	next := resetInteraction(d)
	next.CurrentPageID = id
	return next
}

// RenamePage sets a page's display name.
func RenamePage(d Document, id, name string) Document {
	i := d.pageIndex(id)
	if i < 0 {
		return d
	}
	next := Document{Pages: slices.Clone(d.Pages), CurrentPageID: d.CurrentPageID}
	next.Pages[i].Name = name
	return next
}

// RemovePage deletes a page. The last remaining page cannot be removed.
// Removing the current page makes its neighbour current.
func RemovePage(d Document, id string) Document {
	i := d.pageIndex(id)
	if i < 0 || len(d.Pages) <= 1 {
		return d
	}
	next := Document{Pages: slices.Delete(slices.Clone(d.Pages), i, i+1), CurrentPageID: d.CurrentPageID}
	if id == d.CurrentPageID {
		next.CurrentPageID = next.Pages[min(i, len(next.Pages)-1)].ID
	}
	return next
}

func resetInteraction(d Document) Document {
	return UpdateCurrentPage(d, func(p *Page) {
		p.Mode = Idle{}
		p.PendingSelectedIDs = nil
		p.HoveringID = NoID
	})
}
