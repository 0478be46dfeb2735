package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories 实验室模块仓库集合
type Repositories struct {
	LabRequest *LabRequestRepository
	Ledger     *LedgerRepository
	Document   *DocumentRepository
	Quote      *QuoteRepository
	Event      *EventRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		LabRequest: NewLabRequestRepository(db),
		Ledger:     NewLedgerRepository(db),
		Document:   NewDocumentRepository(db),
		Quote:      NewQuoteRepository(db),
		Event:      NewEventRepository(db),
	}
}
