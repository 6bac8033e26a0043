package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"sacra360/internal/certificate/models"
	"sacra360/internal/certificate/service"
	"sacra360/internal/certificate/service/mocks"
	"sacra360/pkg/platform/sentinel"
	"sacra360/pkg/testutil"
)

func newRouter(t *testing.T, source service.Source) http.Handler {
	t.Helper()
	svc, err := service.New(source)
	require.NoError(t, err)
	r := chi.NewRouter()
	r.Route("/api/certificados", New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register)
	return r
}

func TestGetCertificate(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockSource(ctrl)
	router := newRouter(t, source)

	t.Run("renders the assembled certificate", func(t *testing.T) {
		source.EXPECT().FindCore(gomock.Any(), int64(3)).Return(&models.Certificate{
			SacramentoID: 3, Tipo: "Bautismo", Persona: models.Person{NombreCompleto: "Ana Paz Ruiz"},
		}, nil)
		source.EXPECT().FindBaptism(gomock.Any(), int64(3)).Return(&models.BaptismDetail{Madrina: "Rosa"}, nil)
		source.EXPECT().FindConfirmation(gomock.Any(), int64(3)).Return(nil, sentinel.ErrNotFound)
		source.EXPECT().FindMarriage(gomock.Any(), int64(3)).Return(nil, sentinel.ErrNotFound)

		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/certificados/3"))
		testutil.AssertStatusOK(t, rr)
		assert.Equal(t, "private, no-store", rr.Header().Get("Cache-Control"))
		cert := testutil.UnmarshalResponse[map[string]any](t, rr)
		assert.Equal(t, "Bautismo", (*cert)["tipo"])
		assert.NotContains(t, *cert, "matrimonio")
	})

	t.Run("unknown sacrament is 404", func(t *testing.T) {
		source.EXPECT().FindCore(gomock.Any(), int64(4)).Return(nil, sentinel.ErrNotFound)
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/certificados/4"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("non-numeric id is 400", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/certificados/abc"))
		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}
