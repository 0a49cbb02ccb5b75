package services

import (
	"context"

	"citipulse/models"
)

// SummaryWriter persists the latest campus summary
type SummaryWriter interface {
	WriteSummary(ctx context.Context, summary models.CampusSummary) error
}

// SummarySink recomputes the campus summary after each tick and hands it to a writer
type SummarySink struct {
	source func() models.CampusSummary
	writer SummaryWriter
}

func NewSummarySink(source func() models.CampusSummary, writer SummaryWriter) *SummarySink {
	return &SummarySink{source: source, writer: writer}
}

func (s *SummarySink) Name() string { return "campus-summary" }

func (s *SummarySink) Publish(ctx context.Context, _ models.TickReport) error {
	return s.writer.WriteSummary(ctx, s.source())
}
