package jobs

import (
	"context"

	"github.com/partsflow/demandcast/internal/ingest"
	"github.com/partsflow/demandcast/pkg/logger"
)

// IngestJob refreshes the market-context store from the configured news
// feeds every hour.
type IngestJob struct {
	ingestor *ingest.Ingestor
	logger   *logger.Logger
}

// NewIngestJob creates a new ingest job
func NewIngestJob(ingestor *ingest.Ingestor, log *logger.Logger) *IngestJob {
	return &IngestJob{
		ingestor: ingestor,
		logger:   log,
	}
}

// Name returns the job name
func (j *IngestJob) Name() string {
	return "market_ingest"
}

// Schedule returns the cron schedule (top of every hour, with seconds)
func (j *IngestJob) Schedule() string {
	return "0 0 * * * *"
}

// Run ingests all configured feeds
func (j *IngestJob) Run(ctx context.Context) error {
	stored, err := j.ingestor.Run(ctx)
	if err != nil {
		return err
	}

	j.logger.WithField("stored", stored).Info("Scheduled ingestion completed")
	return nil
}
