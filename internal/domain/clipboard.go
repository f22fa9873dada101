package domain

import "slices"

// DefaultPasteOffset shifts pasted blocks so they don't sit exactly on top of
// their originals.
const DefaultPasteOffset = 20.0

// ClipboardPayload is what Copy captures: the selected blocks and the links
// whose both endpoints were selected.
type ClipboardPayload struct {
	Blocks []Block `json:"blocks"`
	Links  []Link  `json:"links"`
}

// Empty reports whether the payload carries no blocks.
func (c ClipboardPayload) Empty() bool {
	return len(c.Blocks) == 0
}

// Copy captures the current selection.
func Copy(d Document) ClipboardPayload {
	page, ok := d.CurrentPage()
	if !ok {
		return ClipboardPayload{}
	}
	payload := ClipboardPayload{Blocks: page.SelectedBlocks()}
	for _, l := range page.Links {
		if page.IsSelected(l.ParentBlockID) && page.IsSelected(l.ChildBlockID) {
			payload.Links = append(payload.Links, l)
		}
	}
	return payload
}

// Paste inserts the payload onto the current page with fresh ids, shifted by
// (dx, dy) and stacked above every existing block in their original relative
// order. The pasted blocks become the selection. It returns the new block ids.
func Paste(d Document, payload ClipboardPayload, dx, dy float64) (Document, []int, error) {
	if payload.Empty() {
		return d, nil, nil
	}
	var ids []int
	next, err := mutateCurrentPage(d, func(p *Page) error {
		remap := make(map[int]int, len(payload.Blocks))
		ordered := slices.Clone(payload.Blocks)
		slices.SortStableFunc(ordered, func(a, b Block) int { return a.ZIndex - b.ZIndex })

		z := max(p.MaxZIndex(), 0)
		for _, src := range ordered {
			if src.Content == nil {
				continue
			}
			b := src
			b.ID = p.mintID()
			b.X += dx
			b.Y += dy
			b.Width = max(b.Width, MinBlockSize)
			b.Height = max(b.Height, MinBlockSize)
			z++
			b.ZIndex = z
			if w, ok := b.Content.(Webview); ok {
				w.Ready = false
				b.Content = w
			}
			remap[src.ID] = b.ID
			p.Blocks = append(p.Blocks, b)
			ids = append(ids, b.ID)
		}
		for _, l := range payload.Links {
			parent, okP := remap[l.ParentBlockID]
			child, okC := remap[l.ChildBlockID]
			if !okP || !okC {
				continue
			}
			p.Links = append(p.Links, Link{ID: p.mintID(), ParentBlockID: parent, ChildBlockID: child})
		}
		p.SelectedIDs = slices.Clone(ids)
		p.PendingSelectedIDs = nil
		return nil
	})
	if err != nil {
		return d, nil, err
	}
	return next, ids, nil
}
