package weaviate

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
)

func TestClassName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"financial_documents", "FinancialDocuments"},
		{"regulatory_frameworks", "RegulatoryFrameworks"},
		{"disclosure-checklists", "DisclosureChecklists"},
		{"Rules", "Rules"},
		{"", ""},
		{"_1abc", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassName(tt.in))
		})
	}
}

func TestObjectID(t *testing.T) {
	id := "6f1c3c2e-8a4e-5b1d-9a57-2f0f3c9e4d10"
	assert.Equal(t, id, ObjectID(id).String())

	derived := ObjectID("chunk-7")
	assert.Equal(t, derived, ObjectID("chunk-7"))
	assert.NotEqual(t, derived, ObjectID("chunk-8"))
	assert.True(t, strings.Count(derived.String(), "-") == 4)
}

func TestToObject(t *testing.T) {
	obj, err := toObject("Rules", driven.VectorRecord{
		ID:     "r1",
		Text:   "Lessees shall recognise a right-of-use asset.",
		Vector: []float32{0.1, 0.2},
		Metadata: map[string]string{
			driven.MetaFramework: "IndAS",
			"clause":             "22",
		},
	})
	require.NoError(t, err)

	props := obj.Properties.(map[string]interface{})
	assert.Equal(t, "Rules", obj.Class)
	assert.Equal(t, ObjectID("r1"), obj.ID)
	assert.Equal(t, "IndAS", props[driven.MetaFramework])
	assert.Equal(t, "r1", props[propRecordID])
	assert.JSONEq(t, `{"clause":"22"}`, props[propExtra].(string))

	_, err = toObject("Rules", driven.VectorRecord{})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestWhereFilter(t *testing.T) {
	eq := whereFilter(driven.MetadataFilter{Field: driven.MetaFramework, Op: driven.FilterEqual, Value: "IndAS"}).Build()
	assert.Equal(t, []string{driven.MetaFramework}, eq.Path)
	assert.EqualValues(t, "Equal", eq.Operator)
	require.NotNil(t, eq.ValueText)
	assert.Equal(t, "IndAS", *eq.ValueText)

	like := whereFilter(driven.MetadataFilter{Field: driven.MetaSectionHeader, Op: driven.FilterContains, Value: "Lease"}).Build()
	assert.EqualValues(t, "Like", like.Operator)
	assert.Equal(t, "*Lease*", *like.ValueText)
}

func TestClassSchema(t *testing.T) {
	class := classSchema("FinancialDocuments")
	assert.Equal(t, "none", class.Vectorizer)
	assert.Len(t, class.Properties, len(metadataKeys)+3)
	for _, p := range class.Properties {
		assert.Equal(t, []string{"text"}, p.DataType)
	}
}

func TestParseHits(t *testing.T) {
	var data map[string]models.JSONObject
	require.NoError(t, json.Unmarshal([]byte(`{
	  "Get": {"Rules": [
	    {"text": "lease rule", "record_id": "r1", "framework": "IndAS", "page_number": null,
	     "extra": "{\"clause\":\"22\"}", "_additional": {"id": "u1", "distance": 0.12}},
	    {"text": "other", "record_id": null, "_additional": {"id": "u2", "distance": 0.4}}
	  ]}
	}`), &data))

	hits, err := parseHits(data, "Rules")
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "r1", hits[0].ID)
	assert.Equal(t, "lease rule", hits[0].Text)
	assert.InDelta(t, 0.12, hits[0].Distance, 1e-9)
	assert.Equal(t, map[string]string{"framework": "IndAS", "clause": "22"}, hits[0].Metadata)

	assert.Equal(t, "u2", hits[1].ID)
	assert.Empty(t, hits[1].Metadata)
}

func TestParseCount(t *testing.T) {
	var data map[string]models.JSONObject
	require.NoError(t, json.Unmarshal([]byte(`{"Aggregate": {"Rules": [{"meta": {"count": 42}}]}}`), &data))

	n, err := parseCount(data, "Rules")
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	n, err = parseCount(data, "Missing")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGraphQLError(t *testing.T) {
	assert.NoError(t, graphQLError(&models.GraphQLResponse{}))

	err := graphQLError(&models.GraphQLResponse{Errors: []*models.GraphQLError{{Message: "no such class"}}})
	assert.True(t, errors.Is(err, domain.ErrVectorIndexUnavailable))
	assert.Contains(t, err.Error(), "no such class")
}

// fakeWeaviate serves the schema and GraphQL endpoints for one class.
func fakeWeaviate(t *testing.T, class string, graphQL string) *Index {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v1/meta":
			_, _ = w.Write([]byte(`{"version":"1.35.2"}`))
		case r.URL.Path == "/v1/schema/"+class:
			_ = json.NewEncoder(w).Encode(classSchema(class))
		case strings.HasPrefix(r.URL.Path, "/v1/schema/"):
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Path == "/v1/graphql":
			_, _ = io.Copy(io.Discard, r.Body)
			_, _ = w.Write([]byte(graphQL))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)
	client, err := weaviate.NewClient(weaviate.Config{Host: u.Host, Scheme: u.Scheme})
	require.NoError(t, err)
	return NewWithClient(client)
}

func TestIndex_Count(t *testing.T) {
	idx := fakeWeaviate(t, "Rules", `{"data": {"Aggregate": {"Rules": [{"meta": {"count": 3}}]}}}`)

	n, err := idx.Count(t.Context(), "rules")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = idx.Count(t.Context(), "missing_collection")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIndex_Search(t *testing.T) {
	idx := fakeWeaviate(t, "Rules", `{"data": {"Get": {"Rules": [
	  {"text": "lease rule", "record_id": "r1", "framework": "IndAS", "_additional": {"id": "u1", "distance": 0.1}}
	]}}}`)

	hits, err := idx.Search(t.Context(), driven.SearchQuery{
		Collection: "rules",
		Vector:     []float32{1, 0},
		K:          5,
		Filter:     &driven.MetadataFilter{Field: driven.MetaFramework, Op: driven.FilterEqual, Value: "IndAS"},
	})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "r1", hits[0].ID)
	assert.Equal(t, "IndAS", hits[0].Metadata[driven.MetaFramework])
}
