package repository

import (
	"context"

	"github.com/abigailhaddad/apportionment/internal/domain/entity"
)

// WorkbookRepository reads SF133 source workbooks.
type WorkbookRepository interface {
	// ListWorkbooks returns the workbook paths of dir, sorted by file name.
	ListWorkbooks(dir string) ([]string, error)
	LoadWorkbook(ctx context.Context, path string) (*entity.Workbook, error)
}
