package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pullwatch.app/pullwatch/common/id"
	"pullwatch.app/pullwatch/internal/feed"
	"pullwatch.app/pullwatch/internal/http/dto"
	"pullwatch.app/pullwatch/internal/model"
	"pullwatch.app/pullwatch/internal/store"
)

// IngestService reconciles inbound webhook deliveries into the record
// store. Re-ingesting the same payload for the same id any number of
// times converges to the same record (created_at stays pinned to the
// first observed ingest).
type IngestService interface {
	Ingest(ctx context.Context, eventType string, body []byte) (*model.Record, error)
}

type ingestService struct {
	records store.RecordStore
	feed    feed.Producer
	logger  *slog.Logger
}

func NewIngestService(records store.RecordStore, producer feed.Producer, logger *slog.Logger) IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ingestService{
		records: records,
		feed:    producer,
		logger:  logger,
	}
}

func (s *ingestService) Ingest(ctx context.Context, eventType string, body []byte) (*model.Record, error) {
	entityType := model.EntityType(eventType)
	if entityType != model.EntityTypePullRequest && entityType != model.EntityTypeIssue {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEventType, eventType)
	}

	var payload dto.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &MalformedPayloadError{Reason: "invalid JSON body"}
	}

	record, err := buildRecord(entityType, &payload)
	if err != nil {
		return nil, err
	}

	// The read is best-effort: a failed read is treated as "no existing
	// record" so ingestion stays available when the store is flaky. The
	// cost is that created_at can be re-stamped during a store outage.
	existing, err := s.records.Get(ctx, record.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.WarnContext(ctx, "record read failed, treating as not found",
			"error", err,
			"record_id", record.ID)
		existing = nil
	}

	now := time.Now().UTC()
	record.LastUpdatedAt = now
	if existing != nil {
		record.CreatedAt = existing.CreatedAt
		record.CreatedTimestamp = existing.CreatedTimestamp
	} else {
		record.CreatedAt = now
		record.CreatedTimestamp = now.Unix()
	}

	// Unconditional write: concurrent ingests of the same id resolve
	// last-writer-wins, there is no optimistic locking.
	if err := s.records.Put(ctx, record); err != nil {
		return nil, fmt.Errorf("writing record: %w", err)
	}

	kind := model.ChangeKindModified
	if existing == nil {
		kind = model.ChangeKindCreated
	}

	// The record write is the source of truth; the change feed is
	// best-effort and a publish failure must not fail the ingest.
	event := model.ChangeEvent{
		ID:         id.New(),
		Kind:       kind,
		Record:     *record,
		OccurredAt: now,
	}
	if err := s.feed.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish change event",
			"error", err,
			"record_id", record.ID,
			"kind", kind)
	}

	s.logger.InfoContext(ctx, "record ingested",
		"record_id", record.ID,
		"event_type", eventType,
		"action", record.Action,
		"kind", kind)

	return record, nil
}

func buildRecord(entityType model.EntityType, payload *dto.WebhookPayload) (*model.Record, error) {
	switch entityType {
	case model.EntityTypePullRequest:
		if err := payload.ValidatePullRequest(); err != nil {
			return nil, &MalformedPayloadError{Reason: err.Error()}
		}
		pr := payload.PullRequest
		record := &model.Record{
			ID:         model.RecordID(entityType, pr.ID),
			EntityType: entityType,
			Action:     payload.Action,
			Repository: payload.Repository.FullName,
			Sender:     payload.Sender.Login,
			Number:     pr.Number,
			Title:      pr.Title,
			URL:        pr.HTMLURL,
		}
		assignee := pr.User.Login
		record.Assignee = &assignee
		if pr.DiffURL != "" {
			diffURL := pr.DiffURL
			record.DiffURL = &diffURL
		}
		if payload.Organization != nil && payload.Organization.Login != "" {
			org := payload.Organization.Login
			record.Organization = &org
		}
		return record, nil

	case model.EntityTypeIssue:
		if err := payload.ValidateIssue(); err != nil {
			return nil, &MalformedPayloadError{Reason: err.Error()}
		}
		issue := payload.Issue
		record := &model.Record{
			ID:         model.RecordID(entityType, issue.ID),
			EntityType: entityType,
			Action:     payload.Action,
			Repository: payload.Repository.FullName,
			Sender:     payload.Sender.Login,
			Number:     issue.Number,
			Title:      issue.Title,
			URL:        issue.HTMLURL,
		}
		if issue.Assignee != nil && issue.Assignee.Login != "" {
			assignee := issue.Assignee.Login
			record.Assignee = &assignee
		}
		return record, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedEventType, entityType)
}
