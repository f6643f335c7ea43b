package services

import "context"

const ReleaseLockScript = releaseLockScript

var TrendCacheKey = trendCacheKey

func (s *BookingService) ProcessNoShows(ctx context.Context) {
	s.processNoShows(ctx)
}

func (s *BillingService) ProcessOverdue(ctx context.Context) {
	s.processOverdue(ctx)
}
