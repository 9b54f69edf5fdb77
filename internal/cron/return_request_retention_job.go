package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/packfinderz-payouts/pkg/logger"
)

const ReturnRequestRetentionJobName = "return-request-retention"

type ReturnRequestRetentionJobParams struct {
	Logger *logger.Logger
	Purger returnRequestPurger
}

type returnRequestPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

func NewReturnRequestRetentionJob(params ReturnRequestRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Purger == nil {
		return nil, fmt.Errorf("return request purger required")
	}
	return &returnRequestRetentionJob{
		logg:   params.Logger,
		purger: params.Purger,
	}, nil
}

type returnRequestRetentionJob struct {
	logg   *logger.Logger
	purger returnRequestPurger
}

func (j *returnRequestRetentionJob) Name() string { return ReturnRequestRetentionJobName }

func (j *returnRequestRetentionJob) Run(ctx context.Context) error {
	deleted, err := j.purger.PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("return request retention: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "rows_deleted", deleted), "return request retention cleanup complete")
	return nil
}
