package elastic

import (
	"DormBiz/internal/models"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	body   map[string]any
}

func fakeCluster(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) (*elasticsearch.Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path}
		if data, _ := io.ReadAll(r.Body); len(data) > 0 {
			_ = json.Unmarshal(data, &rec.body)
		}
		calls = append(calls, rec)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		respond(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client, &calls
}

func TestSearch_ReturnsHitIDs(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	client, calls := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"hits":{"hits":[{"_id":"`+first.String()+`"},{"_id":"junk"},{"_id":"`+second.String()+`"}]}}`)
	})
	repo := NewListingSearchRepository(client, "products")

	ids, err := repo.Search(context.Background(), "desk lamp", 5)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, second}, ids)

	require.Len(t, *calls, 1)
	assert.Equal(t, "/products/_search", (*calls)[0].path)
	assert.EqualValues(t, 5, (*calls)[0].body["size"])
}

func TestIndexAndDelete(t *testing.T) {
	client, calls := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
		}
		_, _ = io.WriteString(w, `{}`)
	})
	repo := NewListingSearchRepository(client, "services")
	id := uuid.New()

	err := repo.Index(context.Background(), models.SearchDocument{ID: id, Title: "Bike repair", Category: "repairs"})
	require.NoError(t, err)
	require.NoError(t, repo.Delete(context.Background(), id))

	require.Len(t, *calls, 2)
	assert.Equal(t, "/services/_doc/"+id.String(), (*calls)[0].path)
	assert.Equal(t, "Bike repair", (*calls)[0].body["title"])
	assert.Equal(t, http.MethodDelete, (*calls)[1].method)
}

func TestCreateIndexIfNotExist(t *testing.T) {
	client, calls := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"acknowledged":true}`)
	})
	repo := NewListingSearchRepository(client, "products")

	require.NoError(t, repo.CreateIndexIfNotExist(context.Background()))
	require.Len(t, *calls, 2)
	assert.Equal(t, http.MethodPut, (*calls)[1].method)
	assert.Contains(t, (*calls)[1].body, "mappings")
}
