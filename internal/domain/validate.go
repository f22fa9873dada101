package domain

import (
	"fmt"
	"slices"
)

// Validate checks the structural invariants of d: a resolvable current page,
// unique ids below each page's counter, minimum block sizes and links whose
// endpoints exist.
func Validate(d Document) error {
	if len(d.Pages) == 0 {
		return fmt.Errorf("%w: no pages", ErrInvalidDocument)
	}
	if d.pageIndex(d.CurrentPageID) < 0 {
		return fmt.Errorf("%w: current page %q not found", ErrInvalidDocument, d.CurrentPageID)
	}
	seenPages := make(map[string]bool, len(d.Pages))
	for _, p := range d.Pages {
		if seenPages[p.ID] {
			return fmt.Errorf("%w: duplicate page %q", ErrInvalidDocument, p.ID)
		}
		seenPages[p.ID] = true
		if err := validatePage(p); err != nil {
			return fmt.Errorf("%w: page %q: %v", ErrInvalidDocument, p.ID, err)
		}
	}
	return nil
}

func validatePage(p Page) error {
	ids := make(map[int]bool, len(p.Blocks)+len(p.Links))
	claim := func(kind string, id int) error {
		if id <= NoID {
			return fmt.Errorf("%s has invalid id %d", kind, id)
		}
		if id >= p.IDCounter {
			return fmt.Errorf("%s id %d not below counter %d", kind, id, p.IDCounter)
		}
		if ids[id] {
			return fmt.Errorf("duplicate id %d", id)
		}
		ids[id] = true
		return nil
	}
	for _, b := range p.Blocks {
		if err := claim("block", b.ID); err != nil {
			return err
		}
		if b.Content == nil {
			return fmt.Errorf("block %d has no content", b.ID)
		}
		if b.Width < MinBlockSize || b.Height < MinBlockSize {
			return fmt.Errorf("block %d smaller than minimum size", b.ID)
		}
	}
	for _, l := range p.Links {
		if err := claim("link", l.ID); err != nil {
			return err
		}
		if p.blockIndex(l.ParentBlockID) < 0 || p.blockIndex(l.ChildBlockID) < 0 {
			return fmt.Errorf("link %d references a missing block", l.ID)
		}
	}
	if p.Zoom < MinZoom || p.Zoom > MaxZoom {
		return fmt.Errorf("zoom %v out of range", p.Zoom)
	}
	return nil
}

// Normalize prepares a freshly loaded document for use: every page returns
// to idle with no hover, edit or pending selection, webviews are marked not
// ready, selections drop ids that no longer exist, and a zero zoom becomes
// the default.
func Normalize(d Document) Document {
	next := d.Clone()
	for i := range next.Pages {
		p := &next.Pages[i]
		p.Mode = Idle{}
		p.PendingSelectedIDs = nil
		p.HoveringID = NoID
		p.EditingID = NoID
		if p.Zoom == 0 {
			p.Zoom = DefaultZoom
		}
		if p.Blocks == nil {
			p.Blocks = []Block{}
		}
		if p.Links == nil {
			p.Links = []Link{}
		}
		for j := range p.Blocks {
			if w, ok := p.Blocks[j].Content.(Webview); ok {
				w.Ready = false
				p.Blocks[j].Content = w
			}
		}
		p.SelectedIDs = slices.DeleteFunc(slices.Clone(p.SelectedIDs), func(id int) bool {
			_, isLink := p.Link(id)
			return p.blockIndex(id) < 0 && !isLink
		})
		if p.SelectedIDs == nil {
			p.SelectedIDs = []int{}
		}
	}
	return next
}
