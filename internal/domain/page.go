package domain

import "slices"

// NoID marks the absence of a block or link reference. Issued ids start at 1.
const NoID = 0

// Default and limit values for a page viewport.
const (
	DefaultZoom = 1.0
	MinZoom     = 0.1
	MaxZoom     = 5.0
)

// Page is one canvas surface. Blocks and links share a single id space
// driven by IDCounter, which always exceeds every id ever issued on the page.
type Page struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Blocks      []Block `json:"blocks"`
	Links       []Link  `json:"links"`
	IDCounter   int     `json:"idCounter"`
	OffsetX     float64 `json:"offsetX"`
	OffsetY     float64 `json:"offsetY"`
	Zoom        float64 `json:"zoom"`
	SelectedIDs []int   `json:"selectedIds"`

	// Runtime-only interaction state, never persisted.
	PendingSelectedIDs []int           `json:"-"`
	HoveringID         int             `json:"-"`
	EditingID          int             `json:"-"`
	Mode               InteractionMode `json:"-"`
}

// NewPage returns an empty page with a default viewport.
func NewPage(id, name string) Page {
	return Page{
		ID:          id,
		Name:        name,
		Blocks:      []Block{},
		Links:       []Link{},
		IDCounter:   1,
		Zoom:        DefaultZoom,
		SelectedIDs: []int{},
		Mode:        Idle{},
	}
}

// Interaction returns the active mode, treating an unset mode as Idle.
func (p Page) Interaction() InteractionMode {
	if p.Mode == nil {
		return Idle{}
	}
	return p.Mode
}

// IsIdle reports whether no gesture is in progress.
func (p Page) IsIdle() bool {
	_, ok := p.Interaction().(Idle)
	return ok
}

// Block returns the block with the given id.
func (p Page) Block(id int) (Block, bool) {
	if i := p.blockIndex(id); i >= 0 {
		return p.Blocks[i], true
	}
	return Block{}, false
}

// Link returns the link with the given id.
func (p Page) Link(id int) (Link, bool) {
	for _, l := range p.Links {
		if l.ID == id {
			return l, true
		}
	}
	return Link{}, false
}

// IsSelected reports whether id is in the committed selection.
func (p Page) IsSelected(id int) bool {
	return slices.Contains(p.SelectedIDs, id)
}

// SelectedBlocks returns the selected blocks in page order.
func (p Page) SelectedBlocks() []Block {
	var out []Block
	for _, b := range p.Blocks {
		if p.IsSelected(b.ID) {
			out = append(out, b)
		}
	}
	return out
}

// MaxZIndex returns the highest zIndex on the page, or 0 when there are no blocks.
func (p Page) MaxZIndex() int {
	top := 0
	for i, b := range p.Blocks {
		if i == 0 || b.ZIndex > top {
			top = b.ZIndex
		}
	}
	return top
}

// MinZIndex returns the lowest zIndex on the page, or 0 when there are no blocks.
func (p Page) MinZIndex() int {
	bottom := 0
	for i, b := range p.Blocks {
		if i == 0 || b.ZIndex < bottom {
			bottom = b.ZIndex
		}
	}
	return bottom
}

func (p Page) blockIndex(id int) int {
	for i, b := range p.Blocks {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// mintID issues the next id on the page.
func (p *Page) mintID() int {
	if p.IDCounter < 1 {
		p.IDCounter = 1
	}
	id := p.IDCounter
	p.IDCounter++
	return id
}

// clone copies every slice so the result shares no mutable state with p.
func (p Page) clone() Page {
	p.Blocks = slices.Clone(p.Blocks)
	p.Links = slices.Clone(p.Links)
	p.SelectedIDs = slices.Clone(p.SelectedIDs)
	p.PendingSelectedIDs = slices.Clone(p.PendingSelectedIDs)
	return p
}
