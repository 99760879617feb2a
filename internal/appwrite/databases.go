package appwrite

import (
	"context"
	"encoding/json"
	"fmt"
)

// Document is a database document as returned by the API. System attributes
// are decoded into fields; everything else lands in Data.
type Document struct {
	ID           string         `json:"$id"`
	CollectionID string         `json:"$collectionId"`
	DatabaseID   string         `json:"$databaseId"`
	CreatedAt    string         `json:"$createdAt"`
	UpdatedAt    string         `json:"$updatedAt"`
	Permissions  []string       `json:"$permissions"`
	Data         map[string]any `json:"-"`
}

func (d *Document) UnmarshalJSON(b []byte) error {
	type plain Document
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range []string{"$id", "$collectionId", "$databaseId", "$createdAt", "$updatedAt", "$permissions"} {
		delete(all, k)
	}
	*d = Document(p)
	d.Data = all
	return nil
}

// Databases groups the document database endpoints.
type Databases struct {
	client *Client
}

func NewDatabases(c *Client) *Databases {
	return &Databases{client: c}
}

// UpdateDocument patches a document. A nil data map leaves the document's
// attributes untouched; a nil permissions slice leaves its permissions
// untouched. Non-nil permissions replace the document's list.
func (d *Databases) UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any, permissions []string) (*Document, error) {
	if databaseID == "" || collectionID == "" || documentID == "" {
		return nil, fmt.Errorf("update document: database, collection and document id are required")
	}

	body := map[string]any{}
	if data != nil {
		body["data"] = data
	}
	if permissions != nil {
		body["permissions"] = permissions
	}

	var doc Document
	resp, err := d.client.http.R().
		SetContext(ctx).
		SetPathParams(map[string]string{
			"databaseId":   databaseID,
			"collectionId": collectionID,
			"documentId":   documentID,
		}).
		SetBody(body).
		SetResult(&doc).
		SetError(&Error{}).
		Patch("/databases/{databaseId}/collections/{collectionId}/documents/{documentId}")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, toError(resp)
	}
	return &doc, nil
}
