package events

import (
	"context"
	"strings"
	"time"

	"github.com/quizops/quizops-api/internal/pkg/metrics"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Feed(ctx context.Context, windowHours int, eventTypeFilter string, limit int) (*FeedResponse, error) {
	now := time.Now().UTC()
	since := now.Add(-time.Duration(windowHours) * time.Hour)

	eventTypes := NotificationEventTypes
	filter := strings.TrimSpace(eventTypeFilter)
	if filter != "" {
		if !KnownEventType(filter) {
			return nil, ErrEventTypeInvalid
		}
		eventTypes = []string{filter}
	}

	list, err := s.repo.ListEventsSince(ctx, since, eventTypes, limit)
	if err != nil {
		return nil, err
	}
	byType, err := s.repo.CountByTypeSince(ctx, since, eventTypes)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.repo.CountByStatusSince(ctx, since, eventTypes)
	if err != nil {
		return nil, err
	}

	resp := &FeedResponse{
		GeneratedAt:     now,
		WindowHours:     windowHours,
		EventTypeFilter: filter,
		TotalEvents:     metrics.SumCounts(byType),
		ByType:          byType,
		ByStatus:        byStatus,
		Events:          make([]EventResponse, 0, len(list)),
	}
	for i := range list {
		resp.Events = append(resp.Events, asEventResponse(&list[i]))
	}
	return resp, nil
}
