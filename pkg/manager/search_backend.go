package manager

import (
	"bytes"
	"context"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// searchBackend issues document API calls and returns the HTTP status and
// body. Writes refresh the index so they are visible to the next search.
type searchBackend interface {
	index(ctx context.Context, index, id string, doc []byte) (int, []byte, error)
	search(ctx context.Context, index string, query []byte) (int, []byte, error)
	update(ctx context.Context, index, id string, doc []byte) (int, []byte, error)
	delete(ctx context.Context, index, id string) (int, []byte, error)
}

type elasticBackend struct {
	client *elasticsearch.Client
}

func (b *elasticBackend) index(ctx context.Context, index, id string, doc []byte) (int, []byte, error) {
	opts := []func(*esapi.IndexRequest){
		b.client.Index.WithContext(ctx),
		b.client.Index.WithRefresh("true"),
	}
	if id != "" {
		opts = append(opts, b.client.Index.WithDocumentID(id))
	}
	res, err := b.client.Index(index, bytes.NewReader(doc), opts...)
	if err != nil {
		return 0, nil, err
	}
	return readResponse(res.StatusCode, res.Body)
}

func (b *elasticBackend) search(ctx context.Context, index string, query []byte) (int, []byte, error) {
	res, err := b.client.Search(
		b.client.Search.WithContext(ctx),
		b.client.Search.WithIndex(index),
		b.client.Search.WithBody(bytes.NewReader(query)),
	)
	if err != nil {
		return 0, nil, err
	}
	return readResponse(res.StatusCode, res.Body)
}

func (b *elasticBackend) update(ctx context.Context, index, id string, doc []byte) (int, []byte, error) {
	res, err := b.client.Update(index, id, bytes.NewReader(doc),
		b.client.Update.WithContext(ctx),
		b.client.Update.WithRefresh("true"),
	)
	if err != nil {
		return 0, nil, err
	}
	return readResponse(res.StatusCode, res.Body)
}

func (b *elasticBackend) delete(ctx context.Context, index, id string) (int, []byte, error) {
	res, err := b.client.Delete(index, id,
		b.client.Delete.WithContext(ctx),
		b.client.Delete.WithRefresh("true"),
	)
	if err != nil {
		return 0, nil, err
	}
	return readResponse(res.StatusCode, res.Body)
}

type openSearchBackend struct {
	client *opensearch.Client
}

func (b *openSearchBackend) index(ctx context.Context, index, id string, doc []byte) (int, []byte, error) {
	opts := []func(*opensearchapi.IndexRequest){
		b.client.Index.WithContext(ctx),
		b.client.Index.WithRefresh("true"),
	}
	if id != "" {
		opts = append(opts, b.client.Index.WithDocumentID(id))
	}
	res, err := b.client.Index(index, bytes.NewReader(doc), opts...)
	if err != nil {
		return 0, nil, err
	}
	return readResponse(res.StatusCode, res.Body)
}

func (b *openSearchBackend) search(ctx context.Context, index string, query []byte) (int, []byte, error) {
	res, err := b.client.Search(
		b.client.Search.WithContext(ctx),
		b.client.Search.WithIndex(index),
		b.client.Search.WithBody(bytes.NewReader(query)),
	)
	if err != nil {
		return 0, nil, err
	}
	return readResponse(res.StatusCode, res.Body)
}

func (b *openSearchBackend) update(ctx context.Context, index, id string, doc []byte) (int, []byte, error) {
	res, err := b.client.Update(index, id, bytes.NewReader(doc),
		b.client.Update.WithContext(ctx),
		b.client.Update.WithRefresh("true"),
	)
	if err != nil {
		return 0, nil, err
	}
	return readResponse(res.StatusCode, res.Body)
}

func (b *openSearchBackend) delete(ctx context.Context, index, id string) (int, []byte, error) {
	res, err := b.client.Delete(index, id,
		b.client.Delete.WithContext(ctx),
		b.client.Delete.WithRefresh("true"),
	)
	if err != nil {
		return 0, nil, err
	}
	return readResponse(res.StatusCode, res.Body)
}

func readResponse(status int, body io.ReadCloser) (int, []byte, error) {
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return status, nil, err
	}
	return status, data, nil
}
