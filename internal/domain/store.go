package domain

import (
	"fmt"
	"slices"
)

// ─────────────────────────────────────────────────────────────
// Document store: pure block and link operations on the current page
// ─────────────────────────────────────────────────────────────

// AddBlock places a new block of kind t on the current page and returns its id.
// cfg may be nil; zero fields of cfg take the kind's defaults. A zero width or
// height takes the kind's default size, and sizes are clamped to MinBlockSize.
// The new block is stacked above every existing block.
func AddBlock(d Document, t BlockType, cfg Content, x, y, w, h float64) (Document, int, error) {
	def, err := DefaultContent(t)
	if err != nil {
		return d, NoID, err
	}
	if cfg != nil && cfg.Type() != t {
		return d, NoID, fmt.Errorf("%w: %s config for %s block", ErrContentMismatch, cfg.Type(), t)
	}
	dw, dh := DefaultSize(t)
	if w == 0 {
		w = dw
	}
	if h == 0 {
		h = dh
	}

	var id int
	next, err := mutateCurrentPage(d, func(p *Page) error {
		id = p.mintID()
		p.Blocks = append(p.Blocks, Block{
			ID:      id,
			X:       x,
			Y:       y,
			Width:   max(w, MinBlockSize),
			Height:  max(h, MinBlockSize),
			ZIndex:  max(p.MaxZIndex(), 0) + 1,
			Content: mergeContent(def, cfg),
		})
		return nil
	})
	if err != nil {
		return d, NoID, fmt.Errorf("add block: %w", err)
	}
	return next, id, nil
}

// BlockPatch is a partial update to a block. Nil fields are left unchanged.
type BlockPatch struct {
	ID      *int
	X       *float64
	Y       *float64
	Width   *float64
	Height  *float64
	ZIndex  *int
	Content Content
}

// UpdateBlock applies patch to block id on the current page. A patch that
// changes the id or the block kind is rejected; an unknown id is a no-op.
func UpdateBlock(d Document, id int, patch BlockPatch) (Document, error) {
	if patch.ID != nil && *patch.ID != id {
		return d, fmt.Errorf("update block %d: %w (to %d)", id, ErrIDChange, *patch.ID)
	}
	page, ok := d.CurrentPage()
	if !ok {
		return d, nil
	}
	b, ok := page.Block(id)
	if !ok {
		return d, nil
	}
	if patch.Content != nil && patch.Content.Type() != b.Type() {
		return d, fmt.Errorf("update block %d: %w: %s on %s block", id, ErrContentMismatch, patch.Content.Type(), b.Type())
	}

	return UpdateCurrentPage(d, func(p *Page) {
		b := &p.Blocks[p.blockIndex(id)]
		if patch.X != nil {
			b.X = *patch.X
		}
		if patch.Y != nil {
			b.Y = *patch.Y
		}
		if patch.Width != nil {
			b.Width = max(*patch.Width, MinBlockSize)
		}
		if patch.Height != nil {
			b.Height = max(*patch.Height, MinBlockSize)
		}
		if patch.ZIndex != nil {
			b.ZIndex = *patch.ZIndex
		}
		if patch.Content != nil {
			b.Content = patch.Content
		}
	}), nil
}

// SetBlockGeometry moves and resizes block id in one step.
func SetBlockGeometry(d Document, g BlockGeometry) Document {
	next, _ := UpdateBlock(d, g.ID, BlockPatch{X: &g.X, Y: &g.Y, Width: &g.Width, Height: &g.Height})
	return next
}

// DeleteBlock removes block id and every link touching it.
func DeleteBlock(d Document, id int) Document {
	return DeleteBlocks(d, []int{id})
}

// DeleteBlocks removes every listed block and the links touching them.
// Ids that are not blocks on the current page are ignored.
func DeleteBlocks(d Document, ids []int) Document {
	page, ok := d.CurrentPage()
	if !ok {
		return d
	}
	var present []int
	for _, id := range ids {
		if _, ok := page.Block(id); ok {
			present = append(present, id)
		}
	}
	if len(present) == 0 {
		return d
	}
	return UpdateCurrentPage(d, func(p *Page) {
		removeItems(p, present)
	})
}

// DeleteSelectedItems removes every selected block and link, cascades to
// links touching a removed block, and clears the selection.
func DeleteSelectedItems(d Document) Document {
	page, ok := d.CurrentPage()
	if !ok || len(page.SelectedIDs) == 0 {
		return d
	}
	return UpdateCurrentPage(d, func(p *Page) {
		removeItems(p, slices.Clone(p.SelectedIDs))
		p.SelectedIDs = []int{}
		p.PendingSelectedIDs = nil
	})
}

func removeItems(p *Page, ids []int) {
	var blockIDs []int
	for _, id := range ids {
		if p.blockIndex(id) >= 0 {
			blockIDs = append(blockIDs, id)
		}
	}
	p.Blocks = slices.DeleteFunc(p.Blocks, func(b Block) bool {
		return slices.Contains(blockIDs, b.ID)
	})
	p.Links = slices.DeleteFunc(p.Links, func(l Link) bool {
		if slices.Contains(ids, l.ID) {
			return true
		}
		for _, bid := range blockIDs {
			if l.Touches(bid) {
				return true
			}
		}
		return false
	})
	p.SelectedIDs = slices.DeleteFunc(p.SelectedIDs, func(id int) bool {
		return slices.Contains(ids, id)
	})
	if slices.Contains(ids, p.HoveringID) {
		p.HoveringID = NoID
	}
	if slices.Contains(ids, p.EditingID) {
		p.EditingID = NoID
	}
}

// AddLink connects parentID to childID on the current page and returns the
// link id. Links to missing blocks and self-links are ignored.
func AddLink(d Document, parentID, childID int) (Document, int, error) {
	page, ok := d.CurrentPage()
	if !ok {
		return d, NoID, fmt.Errorf("add link: %w", ErrNoCurrentPage)
	}
	if parentID == childID {
		return d, NoID, nil
	}
	if _, ok := page.Block(parentID); !ok {
		return d, NoID, nil
	}
	if _, ok := page.Block(childID); !ok {
		return d, NoID, nil
	}

	var id int
	next := UpdateCurrentPage(d, func(p *Page) {
		id = p.mintID()
		p.Links = append(p.Links, Link{ID: id, ParentBlockID: parentID, ChildBlockID: childID})
	})
	return next, id, nil
}

// SetHovering records the block under the pointer, or NoID.
func SetHovering(d Document, id int) Document {
	page, ok := d.CurrentPage()
	if !ok || page.HoveringID == id {
		return d
	}
	return UpdateCurrentPage(d, func(p *Page) { p.HoveringID = id })
}

// SetEditing records the block whose content is being edited, or NoID.
func SetEditing(d Document, id int) Document {
	page, ok := d.CurrentPage()
	if !ok || page.EditingID == id {
		return d
	}
	if _, exists := page.Block(id); id != NoID && !exists {
		return d
	}
	return UpdateCurrentPage(d, func(p *Page) { p.EditingID = id })
}
