package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/folioport/internal/activity"
	apihttp "github.com/MrJamesThe3rd/folioport/internal/http"
	"github.com/MrJamesThe3rd/folioport/internal/http/convert"
	"github.com/MrJamesThe3rd/folioport/internal/http/mapping"
	"github.com/MrJamesThe3rd/folioport/internal/importer"
	"github.com/MrJamesThe3rd/folioport/internal/importer/dialect"
	"github.com/MrJamesThe3rd/folioport/internal/security"
)

const brokerCSV = "date,type,isin,ticker,name,shares,price,amount,fee,currency\n" +
	"2024-03-15,Buy,CH1,,,-5,10,,,CHF\n" +
	"2024-03-16,Deposit,,,,,,100,,CHF\n"

func newRouter(t *testing.T, resolver security.Resolver, repo security.MappingRepository) http.Handler {
	t.Helper()

	importSvc := importer.NewService(resolver, dialect.Settings{AccountID: "acc-1", RewardAssetID: "rewards"},
		importer.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		importer.WithClock(func() time.Time { return time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC) }),
	)

	var mappingH *mapping.Handler
	if repo != nil {
		mappingH = mapping.NewHandler(security.NewMappingService(repo))
	}

	return apihttp.New(apihttp.Options{AllowedOrigins: []string{"*"}}, convert.NewHandler(importSvc), mappingH)
}

func upload(t *testing.T, provider, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)

	if provider != "" {
		require.NoError(t, mw.WriteField("provider", provider))
	}

	fw, err := mw.CreateFormFile("file", "export.csv")
	require.NoError(t, err)

	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func TestConvert(t *testing.T) {
	type testCase struct {
		name       string
		provider   string
		content    string
		setup      func(m *security.MockResolver)
		wantStatus int
		verify     func(t *testing.T, body []byte)
	}

	tests := []testCase{
		{
			name:     "success",
			provider: "broker",
			content:  brokerCSV,
			setup: func(m *security.MockResolver) {
				m.EXPECT().Resolve(gomock.Any(), gomock.Any()).
					Return(&security.Security{Symbol: "ABC", Currency: "CHF", DataSource: activity.DataSourceYahoo}, nil)
			},
			wantStatus: http.StatusOK,
			verify: func(t *testing.T, body []byte) {
				var resp struct {
					Meta       map[string]string   `json:"meta"`
					Activities []activity.Activity `json:"activities"`
					Skipped    []importer.Skip     `json:"skipped"`
				}

				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "v0", resp.Meta["version"])
				require.Len(t, resp.Activities, 1)
				assert.Equal(t, "ABC", resp.Activities[0].Symbol)
				assert.Equal(t, 5.0, resp.Activities[0].Quantity)
				assert.Equal(t, []importer.Skip{{Line: 3, Reason: importer.SkipUnclassified}}, resp.Skipped)
			},
		},
		{
			name:       "missing provider",
			content:    brokerCSV,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown provider",
			provider:   "degiro",
			content:    brokerCSV,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "empty export",
			provider:   "broker",
			content:    "",
			wantStatus: http.StatusUnprocessableEntity,
			verify: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), "no records found")
			},
		},
		{
			name:     "lookup failure",
			provider: "broker",
			content:  brokerCSV,
			setup: func(m *security.MockResolver) {
				m.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(nil, errors.New("rate limited"))
			},
			wantStatus: http.StatusBadGateway,
			verify: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), "line 2")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			resolver := security.NewMockResolver(ctrl)

			if tt.setup != nil {
				tt.setup(resolver)
			}

			rec := httptest.NewRecorder()
			newRouter(t, resolver, nil).ServeHTTP(rec, upload(t, tt.provider, tt.content))

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.verify != nil {
				tt.verify(t, rec.Body.Bytes())
			}
		})
	}
}

func TestProviders(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(t, security.NotFound, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/providers", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"providers":["bitpanda","broker"]}`, rec.Body.String())
}

func TestMappings_Disabled(t *testing.T) {
	rec := httptest.NewRecorder()
	newRouter(t, security.NotFound, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/mappings", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMappings(t *testing.T) {
	id := uuid.New()
	createdAt := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	t.Run("list", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := security.NewMockMappingRepository(ctrl)
		repo.EXPECT().ListMappings(gomock.Any()).Return([]*security.Mapping{
			{ID: id, Identifier: "CH1", Symbol: "ABC.SW", Currency: "CHF", DataSource: activity.DataSourceYahoo, CreatedAt: createdAt},
		}, nil)

		rec := httptest.NewRecorder()
		newRouter(t, security.NotFound, repo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/mappings", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"id":"`+id.String()+`","identifier":"CH1","symbol":"ABC.SW","currency":"CHF","data_source":"YAHOO","created_at":"2024-04-01T00:00:00Z"}]`, rec.Body.String())
	})

	t.Run("learn", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := security.NewMockMappingRepository(ctrl)
		repo.EXPECT().CreateMapping(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, m *security.Mapping) error {
			m.ID = id
			m.CreatedAt = createdAt

			return nil
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/mappings",
			strings.NewReader(`{"identifier":"XAU","symbol":"GC=F","currency":"usd","data_source":"YAHOO"}`))

		rec := httptest.NewRecorder()
		newRouter(t, security.NotFound, repo).ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"currency":"USD"`)
		assert.Contains(t, rec.Body.String(), id.String())
	})

	t.Run("learn without symbol", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := security.NewMockMappingRepository(ctrl)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/mappings", strings.NewReader(`{"identifier":"XAU"}`))

		rec := httptest.NewRecorder()
		newRouter(t, security.NotFound, repo).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("suggest", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := security.NewMockMappingRepository(ctrl)
		gomock.InOrder(
			repo.EXPECT().FindMapping(gomock.Any(), "CH1").Return(nil, security.ErrMappingNotFound),
			repo.EXPECT().FindMapping(gomock.Any(), "ROG").Return(&security.Mapping{ID: id, Identifier: "ROG", Symbol: "ROG.SW"}, nil),
		)

		rec := httptest.NewRecorder()
		newRouter(t, security.NotFound, repo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/mappings/suggest?isin=CH1&ticker=ROG", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"symbol":"ROG.SW"`)
	})

	t.Run("suggest miss", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		repo := security.NewMockMappingRepository(ctrl)
		repo.EXPECT().FindMapping(gomock.Any(), "Gold").Return(nil, security.ErrMappingNotFound)

		rec := httptest.NewRecorder()
		newRouter(t, security.NotFound, repo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/mappings/suggest?name=Gold", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("suggest without terms", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		rec := httptest.NewRecorder()
		newRouter(t, security.NotFound, security.NewMockMappingRepository(ctrl)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/mappings/suggest", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
