package domain

import "slices"

// PageState is the read model handed to the rendering layer: the current
// page with its blocks in paint order and the interaction state it needs to
// draw selection chrome.
type PageState struct {
	PageID             string   `json:"pageId"`
	Name               string   `json:"name"`
	Blocks             []Block  `json:"blocks"`
	Links              []Link   `json:"links"`
	OffsetX            float64  `json:"offsetX"`
	OffsetY            float64  `json:"offsetY"`
	Zoom               float64  `json:"zoom"`
	SelectedIDs        []int    `json:"selectedIds"`
	PendingSelectedIDs []int    `json:"pendingSelectedIds"`
	HoveringID         int      `json:"hoveringId"`
	EditingID          int      `json:"editingId"`
	Mode               string   `json:"mode"`
	PageIDs            []string `json:"pageIds"`
}

// ModeName returns a stable name for an interaction mode.
func ModeName(m InteractionMode) string {
	switch m.(type) {
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	case BoxSelecting:
		return "boxSelecting"
	}
	return "idle"
}

// StateOf builds the read model for the current page.
func StateOf(d Document) (PageState, bool) {
	p, ok := d.CurrentPage()
	if !ok {
		return PageState{}, false
	}
	blocks := slices.Clone(p.Blocks)
	slices.SortStableFunc(blocks, func(a, b Block) int { return a.ZIndex - b.ZIndex })

	pageIDs := make([]string, len(d.Pages))
	for i, pg := range d.Pages {
		pageIDs[i] = pg.ID
	}
	return PageState{
		PageID:             p.ID,
		Name:               p.Name,
		Blocks:             blocks,
		Links:              slices.Clone(p.Links),
		OffsetX:            p.OffsetX,
		OffsetY:            p.OffsetY,
		Zoom:               p.Zoom,
		SelectedIDs:        slices.Clone(p.SelectedIDs),
		PendingSelectedIDs: slices.Clone(p.PendingSelectedIDs),
		HoveringID:         p.HoveringID,
		EditingID:          p.EditingID,
		Mode:               ModeName(p.Interaction()),
		PageIDs:            pageIDs,
	}, true
}
