package domain

// Link is a directed reference from a parent block to a child block on the
// same page, e.g. a webview opened from another webview.
type Link struct {
	ID            int `json:"id"`
	ParentBlockID int `json:"parentBlockId"`
	ChildBlockID  int `json:"childBlockId"`
}

// Touches reports whether the link references blockID at either end.
func (l Link) Touches(blockID int) bool {
	return l.ParentBlockID == blockID || l.ChildBlockID == blockID
}
