package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"canvas/internal/domain"
)

// SchemaVersion is written with every page so later layouts can migrate rows.
const SchemaVersion = 1

// DocumentStore persists a whole Document. Saves replace every row in one
// transaction, so a crash mid-save leaves the previous document intact.
type DocumentStore struct {
	db  *DB
	log zerolog.Logger
}

func NewDocumentStore(db *DB, log zerolog.Logger) *DocumentStore {
	return &DocumentStore{db: db, log: log}
}

// Save writes d, dropping runtime-only state.
func (s *DocumentStore) Save(ctx context.Context, d domain.Document) error {
	start := time.Now()
	tx, err := s.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save document: begin: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM links`, `DELETE FROM blocks`, `DELETE FROM pages`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("save document: clear: %w", err)
		}
	}

	blocks := 0
	for order, p := range d.Pages {
		if err := insertPage(ctx, tx, p, order); err != nil {
			return fmt.Errorf("save document: page %s: %w", p.ID, err)
		}
		blocks += len(p.Blocks)
	}
	if err := setSetting(ctx, tx, SettingCurrentPage, d.CurrentPageID); err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save document: commit: %w", err)
	}
	s.log.Debug().
		Int("pages", len(d.Pages)).
		Int("blocks", blocks).
		Dur("duration", time.Since(start)).
		Msg("document saved")
	return nil
}

func insertPage(ctx context.Context, tx *sql.Tx, p domain.Page, order int) error {
	selected, err := json.Marshal(nonNil(p.SelectedIDs))
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO pages (id, name, sort_order, id_counter, offset_x, offset_y, zoom, selected_json, schema_version, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, order, p.IDCounter, p.OffsetX, p.OffsetY, p.Zoom, string(selected), SchemaVersion, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}

	for _, b := range p.Blocks {
		cfg, err := json.Marshal(b.Content)
		if err != nil {
			return fmt.Errorf("encode block %d: %w", b.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO blocks (page_id, id, type, x, y, width, height, z_index, config_json) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, b.ID, string(b.Type()), b.X, b.Y, b.Width, b.Height, b.ZIndex, string(cfg),
		)
		if err != nil {
			return fmt.Errorf("insert block %d: %w", b.ID, err)
		}
	}

	for _, l := range p.Links {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO links (page_id, id, parent_block_id, child_block_id) VALUES (?, ?, ?, ?)`,
			p.ID, l.ID, l.ParentBlockID, l.ChildBlockID,
		)
		if err != nil {
			return fmt.Errorf("insert link %d: %w", l.ID, err)
		}
	}
	return nil
}

// Load reads the stored document. ok is false when nothing has been saved
// yet. The result is normalized for a fresh session and validated.
func (s *DocumentStore) Load(ctx context.Context) (domain.Document, bool, error) {
	pages, err := s.loadPages(ctx)
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("load document: %w", err)
	}
	if len(pages) == 0 {
		return domain.Document{}, false, nil
	}

	for i := range pages {
		if pages[i].Blocks, err = s.loadBlocks(ctx, pages[i].ID); err != nil {
			return domain.Document{}, false, fmt.Errorf("load document: %w", err)
		}
		if pages[i].Links, err = s.loadLinks(ctx, pages[i].ID); err != nil {
			return domain.Document{}, false, fmt.Errorf("load document: %w", err)
		}
	}

	current, _, err := getSetting(ctx, s.db.conn, SettingCurrentPage)
	if err != nil {
		return domain.Document{}, false, fmt.Errorf("load document: %w", err)
	}
	d := domain.Document{Pages: pages, CurrentPageID: current}
	if _, ok := d.CurrentPage(); !ok {
		s.log.Warn().Str("page", current).Msg("stored current page missing, using first page")
		d.CurrentPageID = pages[0].ID
	}

	d = domain.Normalize(d)
	if err := domain.Validate(d); err != nil {
		return domain.Document{}, false, fmt.Errorf("load document: %w", err)
	}
	return d, true, nil
}

func (s *DocumentStore) loadPages(ctx context.Context) ([]domain.Page, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT id, name, id_counter, offset_x, offset_y, zoom, selected_json FROM pages ORDER BY sort_order ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	defer rows.Close()

	var pages []domain.Page
	for rows.Next() {
		p := domain.NewPage("", "")
		var selected string
		if err := rows.Scan(&p.ID, &p.Name, &p.IDCounter, &p.OffsetX, &p.OffsetY, &p.Zoom, &selected); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		if err := json.Unmarshal([]byte(selected), &p.SelectedIDs); err != nil {
			return nil, fmt.Errorf("page %s selection: %w", p.ID, err)
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (s *DocumentStore) loadBlocks(ctx context.Context, pageID string) ([]domain.Block, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT id, type, x, y, width, height, z_index, config_json FROM blocks WHERE page_id = ? ORDER BY id ASC`,
		pageID,
	)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	blocks := []domain.Block{}
	for rows.Next() {
		var (
			b        domain.Block
			typ, cfg string
		)
		if err := rows.Scan(&b.ID, &typ, &b.X, &b.Y, &b.Width, &b.Height, &b.ZIndex, &cfg); err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		if b.Content, err = domain.DecodeContent(domain.BlockType(typ), []byte(cfg)); err != nil {
			return nil, fmt.Errorf("block %d: %w", b.ID, err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

func (s *DocumentStore) loadLinks(ctx context.Context, pageID string) ([]domain.Link, error) {
	rows, err := s.db.conn.QueryContext(ctx,
		`SELECT id, parent_block_id, child_block_id FROM links WHERE page_id = ? ORDER BY id ASC`,
		pageID,
	)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	links := []domain.Link{}
	for rows.Next() {
		var l domain.Link
		if err := rows.Scan(&l.ID, &l.ParentBlockID, &l.ChildBlockID); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

func nonNil(ids []int) []int {
	if ids == nil {
		return []int{}
	}
	return ids
}
