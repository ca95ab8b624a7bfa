// Package weaviate provides a VectorIndex backed by a Weaviate instance.
//
// Each collection maps to a Weaviate class with vectorizer "none"; vectors
// are always supplied by the caller. Record metadata is stored as text
// properties so that framework and section filters run server side.
package weaviate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/auth"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
	"github.com/custodia-labs/sercha-comply/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-comply/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Property names beyond the metadata keys.
const (
	propText     = "text"
	propRecordID = "record_id"
	propExtra    = "extra"
)

// batchSize caps the objects sent per batch request.
const batchSize = 100

// metadataKeys are stored as first-class filterable properties.
// Other metadata keys are kept as JSON in the extra property.
var metadataKeys = []string{
	driven.MetaDocumentID,
	driven.MetaSourceFile,
	driven.MetaPageNumber,
	driven.MetaElementType,
	driven.MetaSectionPath,
	driven.MetaSectionHeader,
	driven.MetaFramework,
	driven.MetaStandardName,
	driven.MetaHasTable,
	driven.MetaChunkIndex,
}

// recordNamespace derives Weaviate object UUIDs from record ids that are
// not UUIDs themselves.
var recordNamespace = uuid.MustParse("3b0f6f7e-2c55-4b8e-9d0e-6a8f0d1c7e21")

// Config holds connection settings.
type Config struct {
	// Host is host:port of the Weaviate REST endpoint.
	Host string

	// Scheme is http or https (default: http).
	Scheme string

	// APIKey authenticates against a secured instance. Optional.
	APIKey string
}

// Index is a Weaviate-backed vector index.
type Index struct {
	client *weaviate.Client

	mu      sync.Mutex
	ensured map[string]bool
}

// New connects to Weaviate and checks that it is ready.
func New(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("weaviate: %w: host is required", domain.ErrVectorIndexUnavailable)
	}
	if cfg.Scheme == "" {
		cfg.Scheme = "http"
	}

	clientCfg := weaviate.Config{
		Host:   cfg.Host,
		Scheme: cfg.Scheme,
	}
	if cfg.APIKey != "" {
		clientCfg.AuthConfig = auth.ApiKey{Value: cfg.APIKey}
	}

	client, err := weaviate.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("weaviate: %w: %w", domain.ErrVectorIndexUnavailable, err)
	}

	ready, err := client.Misc().ReadyChecker().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate: %w: %w", domain.ErrVectorIndexUnavailable, err)
	}
	if !ready {
		return nil, fmt.Errorf("weaviate: %w: %s is not ready", domain.ErrVectorIndexUnavailable, cfg.Host)
	}

	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *weaviate.Client) *Index {
	return &Index{client: client, ensured: make(map[string]bool)}
}

// Upsert writes records in batches. Objects are keyed by a UUID derived
// from the record ID, so re-upserting a record replaces it.
func (x *Index) Upsert(ctx context.Context, collection string, records []driven.VectorRecord) error {
	if len(records) == 0 {
		return nil
	}
	class := ClassName(collection)
	if class == "" {
		return fmt.Errorf("weaviate: %w: invalid collection %q", domain.ErrInvalidInput, collection)
	}
	if err := x.ensureClass(ctx, class); err != nil {
		return err
	}

	for start := 0; start < len(records); start += batchSize {
		batch := records[start:min(start+batchSize, len(records))]

		objects := make([]*models.Object, 0, len(batch))
		for _, r := range batch {
			obj, err := toObject(class, r)
			if err != nil {
				return err
			}
			objects = append(objects, obj)
		}

		resp, err := x.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
		if err != nil {
			return fmt.Errorf("weaviate: batch import into %s: %w: %w", class, domain.ErrVectorIndexUnavailable, err)
		}
		if err := batchErrors(resp); err != nil {
			return fmt.Errorf("weaviate: batch import into %s: %w", class, err)
		}
	}

	logger.Debug("weaviate: upserted %d records into %s", len(records), class)
	return nil
}

// Search runs a near-vector query with an optional metadata filter.
func (x *Index) Search(ctx context.Context, q driven.SearchQuery) ([]driven.VectorHit, error) {
	class := ClassName(q.Collection)
	if class == "" {
		return nil, fmt.Errorf("weaviate: %w: invalid collection %q", domain.ErrInvalidInput, q.Collection)
	}

	fields := make([]graphql.Field, 0, len(metadataKeys)+4)
	fields = append(fields, graphql.Field{Name: propText}, graphql.Field{Name: propRecordID}, graphql.Field{Name: propExtra})
	for _, k := range metadataKeys {
		fields = append(fields, graphql.Field{Name: k})
	}
	fields = append(fields, graphql.Field{
		Name:   "_additional",
		Fields: []graphql.Field{{Name: "id"}, {Name: "distance"}},
	})

	get := x.client.GraphQL().Get().
		WithClassName(class).
		WithFields(fields...).
		WithNearVector(x.client.GraphQL().NearVectorArgBuilder().WithVector(q.Vector))
	if q.K > 0 {
		get = get.WithLimit(q.K)
	}
	if q.Filter != nil {
		get = get.WithWhere(whereFilter(*q.Filter))
	}

	resp, err := get.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("weaviate: search %s: %w: %w", class, domain.ErrVectorIndexUnavailable, err)
	}
	if err := graphQLError(resp); err != nil {
		return nil, fmt.Errorf("weaviate: search %s: %w", class, err)
	}

	return parseHits(resp.Data, class)
}

// Count returns the object count of a collection; a missing class counts as zero.
func (x *Index) Count(ctx context.Context, collection string) (int, error) {
	class := ClassName(collection)
	if class == "" {
		return 0, nil
	}

	exists, err := x.client.Schema().ClassExistenceChecker().WithClassName(class).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("weaviate: check class %s: %w: %w", class, domain.ErrVectorIndexUnavailable, err)
	}
	if !exists {
		return 0, nil
	}

	resp, err := x.client.GraphQL().Aggregate().
		WithClassName(class).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("weaviate: count %s: %w: %w", class, domain.ErrVectorIndexUnavailable, err)
	}
	if err := graphQLError(resp); err != nil {
		return 0, fmt.Errorf("weaviate: count %s: %w", class, err)
	}

	return parseCount(resp.Data, class)
}

// Close releases resources.
func (x *Index) Close() error {
	// The REST client holds no connections that need closing.
	return nil
}

// ensureClass creates the class on first use.
func (x *Index) ensureClass(ctx context.Context, class string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.ensured[class] {
		return nil
	}

	exists, err := x.client.Schema().ClassExistenceChecker().WithClassName(class).Do(ctx)
	if err != nil {
		return fmt.Errorf("weaviate: check class %s: %w: %w", class, domain.ErrVectorIndexUnavailable, err)
	}
	if !exists {
		logger.Info("weaviate: creating class %s", class)
		if err := x.client.Schema().ClassCreator().WithClass(classSchema(class)).Do(ctx); err != nil {
			return fmt.Errorf("weaviate: create class %s: %w: %w", class, domain.ErrVectorIndexUnavailable, err)
		}
	}

	x.ensured[class] = true
	return nil
}

// classSchema describes a collection class. Metadata properties use field
// tokenization so that equality filters match whole values.
func classSchema(class string) *models.Class {
	filterable := true

	props := []*models.Property{
		{Name: propText, DataType: []string{"text"}, Tokenization: "word"},
		{Name: propRecordID, DataType: []string{"text"}, Tokenization: "field", IndexFilterable: &filterable},
		{Name: propExtra, DataType: []string{"text"}, Tokenization: "field"},
	}
	for _, k := range metadataKeys {
		props = append(props, &models.Property{
			Name:            k,
			DataType:        []string{"text"},
			Tokenization:    "field",
			IndexFilterable: &filterable,
		})
	}

	return &models.Class{
		Class:       class,
		Description: "Embedded text chunks for compliance retrieval.",
		Vectorizer:  "none",
		Properties:  props,
	}
}

// ClassName maps a collection name to a Weaviate class name.
// Weaviate classes start with an upper-case letter, so
// "financial_documents" becomes "FinancialDocuments".
func ClassName(collection string) string {
	var b strings.Builder
	upper := true
	for _, r := range collection {
		switch {
		case r == '_' || r == '-' || r == ' ':
			upper = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if upper {
				r = unicode.ToUpper(r)
				upper = false
			}
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" || !unicode.IsLetter(rune(name[0])) {
		return ""
	}
	return name
}

// ObjectID returns the Weaviate object UUID for a record ID.
func ObjectID(recordID string) strfmt.UUID {
	if id, err := uuid.Parse(recordID); err == nil {
		return strfmt.UUID(id.String())
	}
	return strfmt.UUID(uuid.NewSHA1(recordNamespace, []byte(recordID)).String())
}

func toObject(class string, r driven.VectorRecord) (*models.Object, error) {
	if r.ID == "" {
		return nil, fmt.Errorf("weaviate: %w: record id is required", domain.ErrInvalidInput)
	}

	props := map[string]interface{}{
		propText:     r.Text,
		propRecordID: r.ID,
	}
	extra := make(map[string]string)
	for k, v := range r.Metadata {
		if isMetadataKey(k) {
			props[k] = v
		} else {
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		raw, err := json.Marshal(extra)
		if err != nil {
			return nil, fmt.Errorf("weaviate: encode metadata: %w", err)
		}
		props[propExtra] = string(raw)
	}

	return &models.Object{
		Class:      class,
		ID:         ObjectID(r.ID),
		Vector:     r.Vector,
		Properties: props,
	}, nil
}

func isMetadataKey(k string) bool {
	for _, m := range metadataKeys {
		if m == k {
			return true
		}
	}
	return false
}

// whereFilter builds the GraphQL where clause for a metadata filter.
// Contains filters become a wildcard Like.
func whereFilter(f driven.MetadataFilter) *filters.WhereBuilder {
	w := filters.Where().WithPath([]string{f.Field})
	if f.Op == driven.FilterContains {
		return w.WithOperator(filters.Like).WithValueText("*" + f.Value + "*")
	}
	return w.WithOperator(filters.Equal).WithValueText(f.Value)
}

func batchErrors(resp []models.ObjectsGetResponse) error {
	var msgs []string
	for _, item := range resp {
		if item.Result == nil || item.Result.Errors == nil {
			continue
		}
		for _, e := range item.Result.Errors.Error {
			if e != nil && e.Message != "" {
				msgs = append(msgs, e.Message)
			}
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d objects failed: %s", domain.ErrVectorIndexUnavailable, len(msgs), msgs[0])
}

func graphQLError(resp *models.GraphQLResponse) error {
	if resp == nil {
		return errors.New("empty response")
	}
	if len(resp.Errors) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(resp.Errors))
	for _, e := range resp.Errors {
		if e != nil {
			msgs = append(msgs, e.Message)
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrVectorIndexUnavailable, strings.Join(msgs, "; "))
}

// parseHits decodes a Get response. Data is re-encoded to JSON and read
// back into typed maps.
func parseHits(data map[string]models.JSONObject, class string) ([]driven.VectorHit, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("weaviate: encode response: %w", err)
	}

	var response struct {
		Get map[string][]map[string]json.RawMessage `json:"Get"`
	}
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, fmt.Errorf("weaviate: decode response: %w", err)
	}

	objects := response.Get[class]
	hits := make([]driven.VectorHit, 0, len(objects))
	for _, obj := range objects {
		hit, err := decodeHit(obj)
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func decodeHit(obj map[string]json.RawMessage) (driven.VectorHit, error) {
	hit := driven.VectorHit{Metadata: make(map[string]string)}

	var additional struct {
		ID       string  `json:"id"`
		Distance float64 `json:"distance"`
	}
	if raw, ok := obj["_additional"]; ok {
		if err := json.Unmarshal(raw, &additional); err != nil {
			return hit, fmt.Errorf("weaviate: decode _additional: %w", err)
		}
	}
	hit.Distance = additional.Distance

	for key, raw := range obj {
		if key == "_additional" {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			// null or non-string property
			continue
		}
		switch key {
		case propText:
			hit.Text = value
		case propRecordID:
			hit.ID = value
		case propExtra:
			if value == "" {
				continue
			}
			extra := make(map[string]string)
			if err := json.Unmarshal([]byte(value), &extra); err != nil {
				return hit, fmt.Errorf("weaviate: decode metadata: %w", err)
			}
			for k, v := range extra {
				hit.Metadata[k] = v
			}
		default:
			if value != "" {
				hit.Metadata[key] = value
			}
		}
	}

	if hit.ID == "" {
		hit.ID = additional.ID
	}
	return hit, nil
}

func parseCount(data map[string]models.JSONObject, class string) (int, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return 0, fmt.Errorf("weaviate: encode aggregate: %w", err)
	}

	var response struct {
		Aggregate map[string][]struct {
			Meta struct {
				Count float64 `json:"count"`
			} `json:"meta"`
		} `json:"Aggregate"`
	}
	if err := json.Unmarshal(raw, &response); err != nil {
		return 0, fmt.Errorf("weaviate: decode aggregate: %w", err)
	}

	groups := response.Aggregate[class]
	if len(groups) == 0 {
		return 0, nil
	}
	return int(groups[0].Meta.Count), nil
}
