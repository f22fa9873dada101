package domain

// SendToFront stacks block id above every other block on the current page.
func SendToFront(d Document, id int) Document {
	page, ok := d.CurrentPage()
	if !ok {
		return d
	}
	if _, ok := page.Block(id); !ok {
		return d
	}
	return UpdateCurrentPage(d, func(p *Page) {
		p.Blocks[p.blockIndex(id)].ZIndex = p.MaxZIndex() + 1
	})
}

// SendToBack stacks block id below every other block on the current page.
func SendToBack(d Document, id int) Document {
	page, ok := d.CurrentPage()
	if !ok {
		return d
	}
	if _, ok := page.Block(id); !ok {
		return d
	}
	return UpdateCurrentPage(d, func(p *Page) {
		p.Blocks[p.blockIndex(id)].ZIndex = p.MinZIndex() - 1
	})
}
