package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/flowrev/internal/common"
	"github.com/dmitrijs2005/flowrev/internal/logging"
	"github.com/dmitrijs2005/flowrev/internal/server/blobstore"
	"github.com/dmitrijs2005/flowrev/internal/server/cache"
	"github.com/dmitrijs2005/flowrev/internal/server/models"
	"github.com/dmitrijs2005/flowrev/internal/server/repositories/cards"
	"github.com/dmitrijs2005/flowrev/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/flowrev/internal/timex"
)

// --- helpers ---

func strPtr(s string) *string { return &s }

func newBoardCache(t *testing.T) (*cache.BoardCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewBoardCache(client, time.Minute), mr
}

// failingCards makes every call of the cards repository fail.
type failingCards struct{ err error }

func (f failingCards) GetAll(context.Context) ([]*models.Card, error)       { return nil, f.err }
func (f failingCards) GetByID(context.Context, int64) (*models.Card, error) { return nil, f.err }
func (f failingCards) Save(context.Context, *models.Card) error             { return f.err }
func (f failingCards) DeleteByID(context.Context, int64) error              { return f.err }

type failingCardsManager struct {
	*repomanager.InMemoryRepositoryManager
	err error
}

func (m failingCardsManager) Cards() cards.Repository { return failingCards{m.err} }

// --- CardService ---

func TestCardService_CreateAndList(t *testing.T) {
	ctx := context.Background()
	s := NewCardService(repomanager.NewInMemoryRepositoryManager(), nil, logging.Nop())

	created, err := s.Create(ctx, "A", "todo")
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "A", all[0].Title)
	assert.Equal(t, "todo", all[0].Column)
	assert.Equal(t, created.ID, all[0].ID)
}

func TestCardService_ListUsesCacheAndMutationsEvict(t *testing.T) {
	ctx := context.Background()
	board, mr := newBoardCache(t)
	m := repomanager.NewInMemoryRepositoryManager()
	s := NewCardService(m, board, logging.Nop())

	c, err := s.Create(ctx, "A", "todo")
	require.NoError(t, err)

	first, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, first, 1)

	// a write that bypasses the service is invisible until eviction
	require.NoError(t, m.Cards().Save(ctx, &models.Card{Title: "hidden"}))
	cached, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	_, err = s.Move(ctx, c.ID, "feito")
	require.NoError(t, err)
	assert.False(t, mr.Exists("flowrev:cartoes"))

	fresh, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
	assert.Equal(t, "feito", fresh[0].Column)
}

// pausingCards holds GetAll open after the read until release is closed.
type pausingCards struct {
	cards.Repository
	read    chan struct{}
	release chan struct{}
}

func (p pausingCards) GetAll(ctx context.Context) ([]*models.Card, error) {
	list, err := p.Repository.GetAll(ctx)
	close(p.read)
	<-p.release
	return list, err
}

type pausingCardsManager struct {
	*repomanager.InMemoryRepositoryManager
	cards pausingCards
}

func (m pausingCardsManager) Cards() cards.Repository { return m.cards }

func TestCardService_ListDoesNotCacheStaleBoard(t *testing.T) {
	ctx := context.Background()
	board, _ := newBoardCache(t)
	m := repomanager.NewInMemoryRepositoryManager()

	slow := pausingCardsManager{m, pausingCards{m.Cards(), make(chan struct{}), make(chan struct{})}}
	reader := NewCardService(slow, board, logging.Nop())
	writer := NewCardService(m, board, logging.Nop())

	done := make(chan error, 1)
	go func() {
		_, err := reader.List(ctx)
		done <- err
	}()

	<-slow.cards.read
	_, err := writer.Create(ctx, "A", "todo")
	require.NoError(t, err)
	close(slow.cards.release)
	require.NoError(t, <-done)

	all, err := writer.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCardService_MoveUnknown(t *testing.T) {
	ctx := context.Background()
	m := repomanager.NewInMemoryRepositoryManager()
	s := NewCardService(m, nil, logging.Nop())
	_, err := s.Create(ctx, "A", "todo")
	require.NoError(t, err)

	_, err = s.Move(ctx, 999, "feito")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "todo", all[0].Column)
}

func TestCardService_UpdateDetailsPartial(t *testing.T) {
	ctx := context.Background()
	s := NewCardService(repomanager.NewInMemoryRepositoryManager(), nil, logging.Nop())

	c, err := s.Create(ctx, "A", "todo")
	require.NoError(t, err)
	due := timex.NewDate(2025, time.January, 31)
	_, err = s.UpdateDetails(ctx, c.ID, CardDetails{DueDate: &due, Assignee: strPtr("Ana")})
	require.NoError(t, err)

	got, err := s.UpdateDetails(ctx, c.ID, CardDetails{Description: strPtr("x")})
	require.NoError(t, err)
	assert.Equal(t, "x", *got.Description)
	assert.Equal(t, "A", got.Title)
	assert.Equal(t, "todo", got.Column)
	assert.Equal(t, "2025-01-31", got.DueDate.String())
	assert.Equal(t, "Ana", *got.Assignee)

	stored, err := s.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestCardService_UpdateDetailsErrors(t *testing.T) {
	ctx := context.Background()
	s := NewCardService(repomanager.NewInMemoryRepositoryManager(), nil, logging.Nop())

	_, err := s.UpdateDetails(ctx, 42, CardDetails{Title: strPtr("t")})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	c, err := s.Create(ctx, "A", "todo")
	require.NoError(t, err)
	long := strings.Repeat("a", models.MaxDescriptionLength+1)
	_, err = s.UpdateDetails(ctx, c.ID, CardDetails{Description: &long})
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestCardService_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	m := repomanager.NewInMemoryRepositoryManager()
	cardsSvc := NewCardService(m, nil, logging.Nop())
	commentsSvc := NewCommentService(m)
	attSvc := NewAttachmentService(m, blobstore.NewLocalStore(t.TempDir()), "http://h", logging.Nop())

	c, err := cardsSvc.Create(ctx, "A", "todo")
	require.NoError(t, err)
	_, err = commentsSvc.Add(ctx, c.ID, "oi", "Ana")
	require.NoError(t, err)
	_, err = attSvc.Upload(ctx, c.ID, "a.txt", strings.NewReader("abc"), 3)
	require.NoError(t, err)

	require.NoError(t, cardsSvc.Delete(ctx, c.ID))

	comments, err := commentsSvc.List(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
	atts, err := attSvc.ListByCard(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, atts)

	assert.ErrorIs(t, cardsSvc.Delete(ctx, c.ID), common.ErrorNotFound)
}

func TestCardService_RepositoryErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("db down")
	s := NewCardService(failingCardsManager{repomanager.NewInMemoryRepositoryManager(), boom}, nil, logging.Nop())

	_, err := s.List(ctx)
	assert.ErrorIs(t, err, boom)
	_, err = s.Create(ctx, "a", "b")
	assert.ErrorIs(t, err, boom)
	_, err = s.Move(ctx, 1, "b")
	assert.ErrorIs(t, err, boom)
}

// --- AttachmentService ---

func withBlobName(t *testing.T, name string) {
	t.Helper()
	orig := newBlobName
	newBlobName = func(string) string { return name }
	t.Cleanup(func() { newBlobName = orig })
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "a.pdf", baseName("a.pdf"))
	assert.Equal(t, "a.pdf", baseName("dir/sub/a.pdf"))
	assert.Equal(t, "a.pdf", baseName(`C:\Users\ana\a.pdf`))
	assert.Equal(t, "arquivo", baseName(""))
	assert.Equal(t, "arquivo", baseName("../"))
}

func TestNewBlobName(t *testing.T) {
	name := newBlobName("docs/relatorio final.pdf")
	parts := strings.SplitN(name, "_", 2)
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], 36)
	assert.Equal(t, "relatorio final.pdf", parts[1])
	assert.NotEqual(t, name, newBlobName("docs/relatorio final.pdf"))
}

func TestAttachmentService_Upload(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "uploads")
	m := repomanager.NewInMemoryRepositoryManager()
	withBlobName(t, "fixed_a.pdf")

	c := &models.Card{Title: "A", Column: "todo"}
	require.NoError(t, m.Cards().Save(ctx, c))

	s := NewAttachmentService(m, blobstore.NewLocalStore(dir), "http://localhost:8080/", logging.Nop())
	a, err := s.Upload(ctx, c.ID, "a.pdf", strings.NewReader("%PDF-1.4"), 8)
	require.NoError(t, err)

	assert.NotZero(t, a.ID)
	assert.Equal(t, "a.pdf", a.FileName)
	assert.Equal(t, filepath.Join(dir, "fixed_a.pdf"), a.Location)
	assert.Equal(t, "http://localhost:8080/files/fixed_a.pdf", a.PublicURL)

	b, err := os.ReadFile(a.Location)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(b))

	list, err := s.ListByCard(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, a.ID, list[0].ID)

	rc, err := s.Open(ctx, "fixed_a.pdf")
	require.NoError(t, err)
	defer rc.Close()
	content, _ := io.ReadAll(rc)
	assert.Equal(t, "%PDF-1.4", string(content))
}

func TestAttachmentService_UploadEmptyFile(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "uploads")
	m := repomanager.NewInMemoryRepositoryManager()
	c := &models.Card{Title: "A"}
	require.NoError(t, m.Cards().Save(ctx, c))

	s := NewAttachmentService(m, blobstore.NewLocalStore(dir), "http://h", logging.Nop())
	_, err := s.Upload(ctx, c.ID, "a.txt", strings.NewReader(""), 0)
	assert.ErrorIs(t, err, common.ErrorEmptyFile)

	list, err := s.ListByCard(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NoDirExists(t, dir)
}

func TestAttachmentService_UploadUnknownCard(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s := NewAttachmentService(repomanager.NewInMemoryRepositoryManager(), blobstore.NewLocalStore(dir), "http://h", logging.Nop())

	_, err := s.Upload(context.Background(), 7, "a.txt", strings.NewReader("x"), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Contains(t, err.Error(), "card lookup")
	assert.NoDirExists(t, dir, "nothing is written before the card lookup")
}

type failingStore struct{ blobstore.Store }

func (failingStore) Save(context.Context, string, io.Reader, int64) (string, error) {
	return "", errors.New("disk full")
}

func TestAttachmentService_UploadStoreFailure(t *testing.T) {
	ctx := context.Background()
	m := repomanager.NewInMemoryRepositoryManager()
	c := &models.Card{Title: "A"}
	require.NoError(t, m.Cards().Save(ctx, c))

	s := NewAttachmentService(m, failingStore{}, "http://h", logging.Nop())
	_, err := s.Upload(ctx, c.ID, "a.txt", strings.NewReader("x"), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	list, _ := s.ListByCard(ctx, c.ID)
	assert.Empty(t, list)
}

func TestAttachmentService_OpenMissing(t *testing.T) {
	s := NewAttachmentService(repomanager.NewInMemoryRepositoryManager(), blobstore.NewLocalStore(t.TempDir()), "http://h", logging.Nop())
	_, err := s.Open(context.Background(), "nope.txt")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

// --- CommentService ---

func TestCommentService_AddAndList(t *testing.T) {
	ctx := context.Background()
	m := repomanager.NewInMemoryRepositoryManager()
	c := &models.Card{Title: "A"}
	require.NoError(t, m.Cards().Save(ctx, c))

	s := NewCommentService(m)
	fixed := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	first, err := s.Add(ctx, c.ID, "hi", "Mickael")
	require.NoError(t, err)
	assert.Equal(t, fixed, first.CreatedAt)

	s.now = time.Now
	_, err = s.Add(ctx, c.ID, "tudo certo?", "Ana")
	require.NoError(t, err)

	list, err := s.List(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "hi", list[0].Text)
	assert.Equal(t, "Mickael", list[0].Author)
	assert.Equal(t, "tudo certo?", list[1].Text)
	assert.Equal(t, "Ana", list[1].Author)
	for _, cm := range list {
		assert.False(t, cm.CreatedAt.IsZero())
	}
}

func TestCommentService_AddUnknownCard(t *testing.T) {
	ctx := context.Background()
	m := repomanager.NewInMemoryRepositoryManager()
	s := NewCommentService(m)

	_, err := s.Add(ctx, 5, "hi", "x")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	list, err := s.List(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, list)
}
