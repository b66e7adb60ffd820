package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/flowrev/internal/common"
	"github.com/dmitrijs2005/flowrev/internal/logging"
	"github.com/dmitrijs2005/flowrev/internal/server/blobstore"
	"github.com/dmitrijs2005/flowrev/internal/server/models"
	"github.com/dmitrijs2005/flowrev/internal/server/repositories/repomanager"
)

// newBlobName is a seam for tests; it yields "<uuid>_<base name>".
var newBlobName = func(fileName string) string {
	return uuid.NewString() + "_" + baseName(fileName)
}

// baseName strips any client-side directory, including Windows-style paths.
func baseName(fileName string) string {
	b := filepath.Base(strings.ReplaceAll(fileName, `\`, "/"))
	if b == "." || b == "/" || b == ".." {
		return "arquivo"
	}
	return b
}

// AttachmentService stores uploaded files and their metadata.
type AttachmentService struct {
	repomanager   repomanager.RepositoryManager
	store         blobstore.Store
	publicBaseURL string
	log           logging.Logger
}

func NewAttachmentService(m repomanager.RepositoryManager, store blobstore.Store, publicBaseURL string, log logging.Logger) *AttachmentService {
	return &AttachmentService{
		repomanager:   m,
		store:         store,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		log:           log.With("module", "attachments"),
	}
}

// Upload copies r to the blob store under a fresh physical name and records
// the attachment for cardID. An empty file yields common.ErrorEmptyFile. The
// card is looked up before anything is written; a blob left behind by a
// failed metadata insert is not removed.
func (s *AttachmentService) Upload(ctx context.Context, cardID int64, fileName string, r io.Reader, size int64) (*models.Attachment, error) {
	if size == 0 {
		return nil, common.ErrorEmptyFile
	}

	if _, err := s.repomanager.Cards().GetByID(ctx, cardID); err != nil {
		return nil, fmt.Errorf("card lookup: %w", err)
	}

	name := newBlobName(fileName)
	location, err := s.store.Save(ctx, name, r, size)
	if err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	a := &models.Attachment{
		FileName:  fileName,
		Location:  location,
		PublicURL: s.publicBaseURL + "/files/" + url.PathEscape(name),
		CardID:    cardID,
	}
	if err := s.repomanager.Attachments().Create(ctx, a); err != nil {
		s.log.Warn(ctx, "attachment metadata not saved, blob orphaned", "location", location, "error", err)
		return nil, fmt.Errorf("save attachment: %w", err)
	}

	s.log.Info(ctx, "attachment stored", "card", cardID, "id", a.ID, "location", location)
	return a, nil
}

// ListByCard returns the card's attachments; unknown cards have none.
func (s *AttachmentService) ListByCard(ctx context.Context, cardID int64) ([]*models.Attachment, error) {
	return s.repomanager.Attachments().FindByCardID(ctx, cardID)
}

// Open returns the bytes of the blob with the given physical name.
func (s *AttachmentService) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return s.store.Open(ctx, name)
}
