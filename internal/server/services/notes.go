package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cryptnotes/internal/common"
	"github.com/dmitrijs2005/cryptnotes/internal/server/models"
	"github.com/dmitrijs2005/cryptnotes/internal/server/repositories/repomanager"
)

// Exporter uploads an export document under key and hands out
// short-lived download links for it.
type Exporter interface {
	Put(ctx context.Context, key string, body []byte) error
	PresignGet(ctx context.Context, key string) (string, error)
}

// ExportResult names the object an export was written to.
type ExportResult struct {
	Key   string
	URL   string
	Count int
}

type exportedNote struct {
	ID               string    `json:"id"`
	EncryptedTitle   []byte    `json:"encrypted_title"`
	EncryptedContent []byte    `json:"encrypted_content"`
	IV               []byte    `json:"iv"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type exportDocument struct {
	AccountID  string         `json:"account_id"`
	ExportedAt time.Time      `json:"exported_at"`
	Notes      []exportedNote `json:"notes"`
}

// NoteService stores notes scoped to their owner. A note owned by someone
// else is reported exactly like a missing one.
type NoteService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	exporter    Exporter
	now         func() time.Time
}

// NewNoteService builds the service; a nil exporter disables Export.
func NewNoteService(db *sql.DB, repomanager repomanager.RepositoryManager, exporter Exporter) *NoteService {
	return &NoteService{
		db:          db,
		repomanager: repomanager,
		exporter:    exporter,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *NoteService) Create(ctx context.Context, ownerID string, n *models.Note) (*models.Note, error) {
	in := *n
	in.OwnerID = ownerID
	return s.repomanager.Notes(s.db).Create(ctx, &in)
}

// List returns the owner's notes, most recently updated first.
func (s *NoteService) List(ctx context.Context, ownerID string) ([]*models.Note, error) {
	return s.repomanager.Notes(s.db).ListByOwner(ctx, ownerID)
}

func (s *NoteService) Get(ctx context.Context, ownerID, noteID string) (*models.Note, error) {
	return s.repomanager.Notes(s.db).Get(ctx, noteID, ownerID)
}

// Update replaces all three ciphertext fields at once. Last write wins.
func (s *NoteService) Update(ctx context.Context, ownerID string, n *models.Note) (*models.Note, error) {
	in := *n
	in.OwnerID = ownerID
	return s.repomanager.Notes(s.db).Update(ctx, &in)
}

func (s *NoteService) Delete(ctx context.Context, ownerID, noteID string) error {
	return s.repomanager.Notes(s.db).Delete(ctx, noteID, ownerID)
}

// Export uploads a ciphertext-only snapshot of the owner's notes.
func (s *NoteService) Export(ctx context.Context, ownerID string) (*ExportResult, error) {
	if s.exporter == nil {
		return nil, common.ErrUnavailable
	}

	list, err := s.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	doc := exportDocument{AccountID: ownerID, ExportedAt: now, Notes: make([]exportedNote, 0, len(list))}
	for _, n := range list {
		doc.Notes = append(doc.Notes, exportedNote{
			ID:               n.ID,
			EncryptedTitle:   n.EncryptedTitle,
			EncryptedContent: n.EncryptedContent,
			IV:               n.IV,
			CreatedAt:        n.CreatedAt,
			UpdatedAt:        n.UpdatedAt,
		})
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%d.json", ownerID, now.Unix())
	if err := s.exporter.Put(ctx, key, body); err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}

	url, err := s.exporter.PresignGet(ctx, key)
	if err != nil {
		return nil, err
	}
	return &ExportResult{Key: key, URL: url, Count: len(list)}, nil
}
