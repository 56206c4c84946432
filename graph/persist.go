package graph

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/viant/afs"

	"github.com/viant/rpgraph/rpgerr"
)

// SaveDocument writes the canonical serialized graph to url (e.g.
// "file:///repo/.rpgraph/graph.json"). fs defaults to afs.New() when nil.
func SaveDocument(ctx context.Context, fs afs.Service, url string, doc *Document) error {
	if fs == nil {
		fs = afs.New()
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return rpgerr.Store(err, "encode graph document")
	}
	if err := fs.Upload(ctx, url, 0644, bytes.NewReader(data)); err != nil {
		return rpgerr.Store(err, "upload graph document")
	}
	return nil
}

// LoadDocument reads a canonical serialized graph from url.
func LoadDocument(ctx context.Context, fs afs.Service, url string) (*Document, error) {
	if fs == nil {
		fs = afs.New()
	}
	exists, err := fs.Exists(ctx, url)
	if err != nil {
		return nil, rpgerr.Store(err, "check graph document existence")
	}
	if !exists {
		return nil, rpgerr.NotFound("graph document not found: %s", url)
	}
	data, err := fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, rpgerr.Store(err, "download graph document")
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, rpgerr.Store(err, "decode graph document")
	}
	if doc.Version == "" {
		doc.Version = SchemaVersion
	}
	return &doc, nil
}
