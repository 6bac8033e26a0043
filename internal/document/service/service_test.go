package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sacra360/internal/document/models"
	"sacra360/internal/document/service/mocks"
	"sacra360/internal/document/storage"
	"sacra360/internal/document/store"
	dErrors "sacra360/pkg/domain-errors"
	audit "sacra360/pkg/platform/audit"
	"sacra360/pkg/requestcontext"
)

type books map[int64]string

func (b books) NameOf(id int64) (string, bool) {
	n, ok := b[id]
	return n, ok
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func upload(name, ct, body string, libroID *int64) *models.UploadRequest {
	return &models.UploadRequest{
		NombreArchivo: name,
		ContentType:   ct,
		LibroID:       libroID,
		Tamano:        int64(len(body)),
		Content:       strings.NewReader(body),
	}
}

func TestUploadWithMemoryBackends(t *testing.T) {
	ctx := requestcontext.WithTime(context.Background(), time.Date(2025, time.May, 2, 9, 0, 0, 0, time.UTC))
	blob := storage.NewMemory()
	svc, err := New(store.NewInMemory(books{1: "Libro I"}), blob, WithLogger(quietLogger()), WithMaxBytes(16))
	require.NoError(t, err)

	t.Run("stores content and metadata", func(t *testing.T) {
		libro := int64(1)
		doc, err := svc.Upload(ctx, upload("foja 3.png", "image/png", "pngbytes", &libro))
		require.NoError(t, err)
		assert.Equal(t, int64(1), doc.ID)
		assert.Equal(t, "image/png", doc.ContentType)
		assert.True(t, strings.HasPrefix(doc.StorageKey, "documentos/2025/05/"))

		got, rc, err := svc.Open(ctx, doc.ID)
		require.NoError(t, err)
		defer rc.Close()
		data, _ := io.ReadAll(rc)
		assert.Equal(t, "pngbytes", string(data))
		assert.Equal(t, "foja 3.png", got.NombreArchivo)
	})

	t.Run("rejects disallowed content types", func(t *testing.T) {
		_, err := svc.Upload(ctx, upload("x.html", "text/html", "<p>", nil))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects oversized files", func(t *testing.T) {
		_, err := svc.Upload(ctx, upload("big.pdf", "application/pdf", strings.Repeat("x", 17), nil))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("unknown book removes the stored object", func(t *testing.T) {
		before := blob.Len()
		missing := int64(9)
		_, err := svc.Upload(ctx, upload("a.pdf", "application/pdf", "%PDF", &missing))
		assert.True(t, dErrors.HasCode(err, dErrors.CodeIntegrity))
		assert.Equal(t, before, blob.Len())
	})

	t.Run("unknown document is 404", func(t *testing.T) {
		_, _, err := svc.Open(ctx, 42)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

type DocumentServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	documents *mocks.MockStore
	blob      *mocks.MockBlob
	publisher *mocks.MockAuditPublisher
	service   *Service
}

func TestDocumentServiceSuite(t *testing.T) {
	suite.Run(t, new(DocumentServiceSuite))
}

func (s *DocumentServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.documents = mocks.NewMockStore(s.ctrl)
	s.blob = mocks.NewMockBlob(s.ctrl)
	s.publisher = mocks.NewMockAuditPublisher(s.ctrl)
	s.blob.EXPECT().Name().Return("mock").AnyTimes()
	var err error
	s.service, err = New(s.documents, s.blob, WithLogger(quietLogger()), WithAuditPublisher(s.publisher))
	s.Require().NoError(err)
}

func (s *DocumentServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *DocumentServiceSuite) TestUploadEmitsAudit() {
	s.blob.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), int64(4), "application/pdf").Return(nil)
	s.documents.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, d *models.Document) error {
		d.ID = 5
		return nil
	})
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.Equal(string(audit.EventDocumentUploaded), e.Action)
		s.Equal("5", e.AggregateID)
		return nil
	})

	doc, err := s.service.Upload(context.Background(), upload("acta.pdf", "application/pdf", "%PDF", nil))
	s.Require().NoError(err)
	s.Equal(int64(5), doc.ID)
}

func (s *DocumentServiceSuite) TestAuditFailureDeletesContent() {
	var key string
	s.blob.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, k string, _ io.Reader, _ int64, _ string) error {
			key = k
			return nil
		})
	s.documents.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("outbox down"))
	s.blob.EXPECT().Delete(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, k string) error {
		s.Equal(key, k)
		return nil
	})

	_, err := s.service.Upload(context.Background(), upload("acta.pdf", "application/pdf", "%PDF", nil))
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *DocumentServiceSuite) TestStorageFailure() {
	s.blob.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("bucket gone"))

	_, err := s.service.Upload(context.Background(), upload("a.png", "image/png", "png", nil))
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *DocumentServiceSuite) TestOpenMissingContent() {
	s.documents.EXPECT().FindByID(gomock.Any(), int64(3)).Return(&models.Document{ID: 3, StorageKey: "documentos/k"}, nil)
	s.blob.EXPECT().Open(gomock.Any(), "documentos/k").Return(nil, storage.ErrObjectNotFound)

	_, _, err := s.service.Open(context.Background(), 3)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
