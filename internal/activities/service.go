// internal/activities/service.go

// Package activities serves the business-activity catalog from a local
// Elasticsearch index and keeps that index in sync with the licensing
// service's upstream catalog.
package activities

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	stderrors "formation-wizard/internal/common/errors"
	"formation-wizard/internal/common/logger"
	"formation-wizard/internal/licensing"
	"formation-wizard/internal/models"
)

const minSearchQueryLength = 2

var ErrQueryTooShort = errors.New("search query must be at least 2 characters")

type Service struct {
	es       *elasticsearch.Client
	source   licensing.API
	index    string
	pageSize int
	logger   logger.Logger
}

func NewService(es *elasticsearch.Client, source licensing.API, index string, pageSize int, log logger.Logger) *Service {
	return &Service{
		es:       es,
		source:   source,
		index:    index,
		pageSize: pageSize,
		logger:   log,
	}
}

// List returns a catalog page, optionally filtered by activity or license
// type.
func (s *Service) List(ctx context.Context, opts licensing.ActivityListOptions) (*models.ActivityList, error) {
	size := opts.Limit
	if size <= 0 || size > 100 {
		size = 20
	}
	from := opts.Offset
	if from < 0 {
		from = 0
	}

	return s.search(ctx, buildListQuery(opts.ActivityType, opts.LicenseType), from, size)
}

// Search runs a relevance-ranked lookup over name, description and code.
func (s *Service) Search(ctx context.Context, query string, limit int) (*models.ActivityList, error) {
	if len(strings.TrimSpace(query)) < minSearchQueryLength {
		return nil, ErrQueryTooShort
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.search(ctx, buildSearchQuery(query), 0, limit)
}

// Get fetches a single catalog entry by id.
func (s *Service) Get(ctx context.Context, id string) (*models.Activity, error) {
	req := esapi.GetRequest{Index: s.index, DocumentID: id}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return nil, fmt.Errorf("get activity: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, fmt.Errorf("activity %s not found", id)
	}
	if res.IsError() {
		return nil, fmt.Errorf("get activity: %s", res.String())
	}

	var doc struct {
		Source models.Activity `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc.Source, nil
}

func (s *Service) search(ctx context.Context, body map[string]interface{}, from, size int) (*models.ActivityList, error) {
	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(encoded),
		From:  &from,
		Size:  &size,
	}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return nil, fmt.Errorf("activity search: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("activity search: %s", res.String())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Activity `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, err
	}

	out := &models.ActivityList{Total: r.Hits.Total.Value}
	for _, hit := range r.Hits.Hits {
		out.Items = append(out.Items, hit.Source)
	}
	return out, nil
}

// SyncFromIFZA pages through the upstream catalog and bulk-indexes every
// entry, reporting how many documents were new versus refreshed. Individual
// document failures are collected, not fatal; the sync keeps going.
func (s *Service) SyncFromIFZA(ctx context.Context) (*models.ActivitySyncResult, error) {
	result := &models.ActivitySyncResult{}

	for offset := 0; ; offset += s.pageSize {
		page, err := s.source.ListActivities(ctx, licensing.ActivityListOptions{
			Limit:  s.pageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, stderrors.NewActivitySyncError(err)
		}
		if len(page.Items) == 0 {
			break
		}

		result.TotalFetched += len(page.Items)
		for _, a := range page.Items {
			if !a.IsRegulated {
				result.NonRegulatedCount++
			}
		}

		if err := s.bulkIndex(ctx, page.Items, result); err != nil {
			return nil, stderrors.NewActivitySyncError(err)
		}

		if len(page.Items) < s.pageSize {
			break
		}
	}

	s.logger.Info("activity catalog synced", map[string]interface{}{
		"fetched": result.TotalFetched,
		"new":     result.NewCount,
		"updated": result.UpdatedCount,
		"errors":  len(result.Errors),
	})
	return result, nil
}

func (s *Service) bulkIndex(ctx context.Context, items []models.Activity, result *models.ActivitySyncResult) error {
	var buf bytes.Buffer
	for _, a := range items {
		meta := map[string]interface{}{
			"index": map[string]interface{}{"_index": s.index, "_id": a.ID},
		}
		metaLine, _ := json.Marshal(meta)
		docLine, err := json.Marshal(a)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("encode activity %s: %v", a.ID, err))
			continue
		}
		buf.Write(metaLine)
		buf.WriteByte('\n')
		buf.Write(docLine)
		buf.WriteByte('\n')
	}

	req := esapi.BulkRequest{Body: &buf}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("bulk index: %s", res.String())
	}

	var r struct {
		Items []map[string]struct {
			Result string `json:"result"`
			Error  *struct {
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return err
	}

	for _, item := range r.Items {
		op := item["index"]
		if op.Error != nil {
			result.Errors = append(result.Errors, op.Error.Reason)
			continue
		}
		switch op.Result {
		case "created":
			result.NewCount++
		case "updated":
			result.UpdatedCount++
		}
	}
	return nil
}
