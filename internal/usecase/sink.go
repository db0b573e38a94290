package usecase

import (
	"CommunityScanner/internal/domain"
	"CommunityScanner/internal/ports"
)

// Collector keeps accepted records in memory, in arrival order.
type Collector struct {
	Records []*domain.CommunityRecord
}

var _ ports.RecordSink = (*Collector)(nil)

func (c *Collector) Accept(record *domain.CommunityRecord) error {
	c.Records = append(c.Records, record)
	return nil
}
