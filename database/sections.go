package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/siherrmann/texgraph/helper"
	"github.com/siherrmann/texgraph/model"
	loadSql "github.com/siherrmann/texgraph/sql"
)

// SectionsDBHandlerFunctions defines the interface for Sections database operations.
type SectionsDBHandlerFunctions interface {
	UpsertSection(section *model.Section) error
	SelectSection(secID string) (*model.Section, error)
	SelectSectionsByDocument(docID string) ([]*model.Section, error)
}

// SectionsDBHandler handles section-related database operations
type SectionsDBHandler struct {
	db *helper.Database
}

// NewSectionsDBHandler creates a new sections database handler.
// It initializes the database connection and loads section-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewSectionsDBHandler(db *helper.Database, force bool) (*SectionsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	sectionsDbHandler := &SectionsDBHandler{
		db: db,
	}

	err := loadSql.LoadSectionsSql(sectionsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load sections sql", err)
	}

	err = sectionsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized SectionsDBHandler")

	return sectionsDbHandler, nil
}

// CreateTable creates the 'sections' table in the database.
// The table references documents, so the documents table must exist first.
func (h *SectionsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_sections();`)
	if err != nil {
		log.Panicf("error initializing sections table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table sections")

	return nil
}

// UpsertSection merges a section by its id.
// On a repeated ingest the title keeps its first value, the page bounds
// follow the latest ingest.
func (h *SectionsDBHandler) UpsertSection(section *model.Section) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM upsert_section($1, $2, $3, $4, $5)`,
		section.SecID,
		section.DocID,
		section.Title,
		section.PageStart,
		section.PageEnd,
	)

	err := row.Scan(
		&section.SecID,
		&section.DocID,
		&section.Title,
		&section.PageStart,
		&section.PageEnd,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectSection retrieves a section by its id
func (h *SectionsDBHandler) SelectSection(secID string) (*model.Section, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_section($1)`,
		secID,
	)

	section := &model.Section{}
	err := row.Scan(
		&section.SecID,
		&section.DocID,
		&section.Title,
		&section.PageStart,
		&section.PageEnd,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return section, nil
}

// SelectSectionsByDocument retrieves all sections of a document ordered by page
func (h *SectionsDBHandler) SelectSectionsByDocument(docID string) ([]*model.Section, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_sections_by_document($1)`,
		docID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var sections []*model.Section
	for rows.Next() {
		section := &model.Section{}
		err := rows.Scan(
			&section.SecID,
			&section.DocID,
			&section.Title,
			&section.PageStart,
			&section.PageEnd,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		sections = append(sections, section)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return sections, nil
}
