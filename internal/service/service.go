package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"deal-radar/internal/config"
	"deal-radar/internal/scoring"
	"deal-radar/internal/social"
	"deal-radar/internal/source"
	"deal-radar/internal/storage"
)

// Advisory lock key offsets per job, derived from the configured base key.
const (
	lockOffsetRadar = iota
	lockOffsetTrends
	lockOffsetWatch
)

// RadarSummary reports one deals-radar run for scheduler-level logging.
type RadarSummary struct {
	Drops   int
	Created int
	Elapsed time.Duration
}

// TrendSummary reports one trend-finder run.
type TrendSummary struct {
	Analyzed int
	Updated  int
	TopScore int
	Elapsed  time.Duration
}

// WatchSummary reports one price-watch ingest run.
type WatchSummary struct {
	Fetched  int
	Appended int
	Elapsed  time.Duration
}

// Service orchestrates the scoring batch jobs over injected collaborators.
type Service struct {
	products  storage.ProductStore
	deals     storage.DealStore
	trends    storage.TrendStore
	announcer social.Announcer
	ctr       scoring.CTRProvider
	sources   []source.Adapter
	logger    zerolog.Logger

	detector  scoring.DetectorOptions
	message   scoring.MessageOptions
	platform  string
	delay     time.Duration
	radarHist int
	trendHist int
	socialOn  bool

	locker  storage.AdvisoryLocker
	lockKey int64

	now func() time.Time
}

// New constructs the batch service.
func New(cfg *config.Config, products storage.ProductStore, deals storage.DealStore, trends storage.TrendStore, announcer social.Announcer, ctr scoring.CTRProvider, sources []source.Adapter, logger zerolog.Logger) *Service {
	detector := scoring.DefaultDetectorOptions()
	if cfg.Scoring.DropThresholdPct > 0 {
		detector.ThresholdPct = decimal.NewFromFloat(cfg.Scoring.DropThresholdPct)
	}
	if cfg.Scoring.DropLookback > 0 {
		detector.Lookback = cfg.Scoring.DropLookback
	}

	message := scoring.DefaultMessageOptions()
	if cfg.Social.MaxChars > 0 {
		message.MaxChars = cfg.Social.MaxChars
	}
	if cfg.Social.HotDropPct > 0 {
		message.HotDropPct = decimal.NewFromFloat(cfg.Social.HotDropPct)
	}

	if ctr == nil {
		ctr = scoring.StaticCTR{Value: cfg.Scoring.DefaultCTR}
	}

	var locker storage.AdvisoryLocker
	if l, ok := products.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Service{
		products:  products,
		deals:     deals,
		trends:    trends,
		announcer: announcer,
		ctr:       ctr,
		sources:   sources,
		logger:    logger.With().Str("component", "service").Logger(),
		detector:  detector,
		message:   message,
		platform:  cfg.Social.Platform,
		delay:     cfg.Social.ScheduleDelay,
		radarHist: cfg.Scoring.RadarHistoryPoints,
		trendHist: cfg.Scoring.TrendHistoryPoints,
		socialOn:  cfg.Social.Enabled,
		locker:    locker,
		lockKey:   cfg.Scheduler.AdvisoryLockKey,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RunDealsRadar scans the catalog snapshot for price drops, scores and
// persists a deal record per qualifying drop, and enqueues an announcement
// for every auto-published deal. Per-item write failures are logged and
// counted; the batch continues.
func (s *Service) RunDealsRadar(ctx context.Context) (RadarSummary, error) {
	start := s.now()

	unlock, proceed, err := s.acquireLock(ctx, lockOffsetRadar)
	if err != nil {
		return RadarSummary{}, err
	}
	if !proceed {
		s.logger.Debug().Msg("skip deals radar: advisory lock held elsewhere")
		return RadarSummary{}, nil
	}
	if unlock != nil {
		defer unlock()
	}

	products, err := s.products.ListProductsWithHistory(ctx, storage.ListOptions{HistoryLimit: s.radarHist})
	if err != nil {
		return RadarSummary{}, fmt.Errorf("list products with history: %w", err)
	}

	drops := scoring.DetectDrops(products, start, s.detector)

	created := 0
	for _, drop := range drops {
		score := scoring.ScoreDeal(drop)
		decision := scoring.Decide(score)

		rec := storage.DealRecord{
			ID:        uuid.NewString(),
			ProductID: drop.ProductID,
			OldPrice:  drop.OldPrice,
			NewPrice:  drop.NewPrice,
			Discount:  drop.DropPercent,
			Source:    drop.Vendor,
			Score:     score,
			Status:    decision.Status,
		}

		stored, insertErr := s.deals.InsertDealRecord(ctx, rec)
		if insertErr != nil {
			s.logger.Error().Err(insertErr).Str("product_id", drop.ProductID).Msg("failed to insert deal record")
			continue
		}
		created++

		if decision.Announce {
			s.announceDeal(ctx, stored, drop)
		}
	}

	summary := RadarSummary{Drops: len(drops), Created: created, Elapsed: s.now().Sub(start)}
	s.logger.Info().
		Int("drops", summary.Drops).
		Int("created", summary.Created).
		Int64("elapsed_ms", summary.Elapsed.Milliseconds()).
		Msg("deals radar complete")
	return summary, nil
}

func (s *Service) announceDeal(ctx context.Context, rec storage.DealRecord, drop scoring.PriceDrop) {
	if !s.socialOn || s.announcer == nil {
		return
	}

	task := social.Task{
		DealRecordID: rec.ID,
		Platform:     s.platform,
		Content:      scoring.ComposeAnnouncement(drop, s.message),
		Hashtags:     scoring.Hashtags(drop),
		ScheduledAt:  s.now().Add(s.delay),
		Status:       social.StatusQueued,
	}
	if err := s.announcer.Announce(ctx, task); err != nil {
		s.logger.Error().Err(err).Str("deal_record_id", rec.ID).Msg("failed to enqueue announcement")
	}
}

// RunTrendFinder scores every product with enough history, ranks them, and
// appends one composite trend signal per product. Write failures are
// per-item; the batch continues.
func (s *Service) RunTrendFinder(ctx context.Context) (TrendSummary, error) {
	start := s.now()

	unlock, proceed, err := s.acquireLock(ctx, lockOffsetTrends)
	if err != nil {
		return TrendSummary{}, err
	}
	if !proceed {
		s.logger.Debug().Msg("skip trend finder: advisory lock held elsewhere")
		return TrendSummary{}, nil
	}
	if unlock != nil {
		defer unlock()
	}

	products, err := s.products.ListProductsWithHistory(ctx, storage.ListOptions{
		HistoryLimit: s.trendHist,
		MediaSince:   start.Add(-7 * 24 * time.Hour),
	})
	if err != nil {
		return TrendSummary{}, fmt.Errorf("list products with history: %w", err)
	}

	ranked := scoring.RankTrends(products, start, s.ctr)

	updated := 0
	for _, entry := range ranked {
		metadata, marshalErr := json.Marshal(entry.Inputs)
		if marshalErr != nil {
			s.logger.Error().Err(marshalErr).Str("product_id", entry.ProductID).Msg("failed to marshal trend metadata")
			continue
		}

		sig := storage.TrendSignal{
			ID:         uuid.NewString(),
			ProductID:  entry.ProductID,
			SignalType: storage.SignalComposite,
			Value:      float64(entry.Score),
			Timestamp:  start,
			Metadata:   metadata,
		}
		if insertErr := s.trends.InsertTrendSignal(ctx, sig); insertErr != nil {
			s.logger.Error().Err(insertErr).Str("product_id", entry.ProductID).Msg("failed to insert trend signal")
			continue
		}
		updated++
	}

	topScore := 0
	if len(ranked) > 0 {
		topScore = ranked[0].Score
	}

	summary := TrendSummary{Analyzed: len(ranked), Updated: updated, TopScore: topScore, Elapsed: s.now().Sub(start)}
	s.logger.Info().
		Int("analyzed", summary.Analyzed).
		Int("updated", summary.Updated).
		Int("top_score", summary.TopScore).
		Int64("elapsed_ms", summary.Elapsed.Milliseconds()).
		Msg("trend finder complete")
	return summary, nil
}

// RunPriceWatch pulls current offers from every configured retailer adapter
// and appends price observations. A failing retailer skips to the next one.
func (s *Service) RunPriceWatch(ctx context.Context) (WatchSummary, error) {
	start := s.now()

	unlock, proceed, err := s.acquireLock(ctx, lockOffsetWatch)
	if err != nil {
		return WatchSummary{}, err
	}
	if !proceed {
		s.logger.Debug().Msg("skip price watch: advisory lock held elsewhere")
		return WatchSummary{}, nil
	}
	if unlock != nil {
		defer unlock()
	}

	fetched := 0
	appended := 0
	for _, adapter := range s.sources {
		offers, fetchErr := adapter.FetchOffers(ctx)
		if fetchErr != nil {
			s.logger.Error().Err(fetchErr).Str("source", adapter.Name()).Msg("failed to fetch offers")
			continue
		}
		fetched += len(offers)

		for _, offer := range offers {
			productID, upsertErr := s.products.UpsertProduct(ctx, storage.Product{
				ID:         uuid.NewString(),
				ExternalID: offer.ExternalID,
				Source:     adapter.Name(),
				Title:      offer.Title,
				Category:   offer.Category,
			})
			if upsertErr != nil {
				s.logger.Error().Err(upsertErr).Str("external_id", offer.ExternalID).Msg("failed to upsert product")
				continue
			}

			point := storage.PricePoint{
				ProductID: productID,
				Price:     offer.Price,
				Source:    adapter.Name(),
				Timestamp: s.now(),
			}
			if appendErr := s.products.AppendPricePoint(ctx, point); appendErr != nil {
				s.logger.Error().Err(appendErr).Str("product_id", productID).Msg("failed to append price point")
				continue
			}
			appended++
		}
	}

	summary := WatchSummary{Fetched: fetched, Appended: appended, Elapsed: s.now().Sub(start)}
	s.logger.Info().
		Int("fetched", summary.Fetched).
		Int("appended", summary.Appended).
		Int64("elapsed_ms", summary.Elapsed.Milliseconds()).
		Msg("price watch complete")
	return summary, nil
}

func (s *Service) acquireLock(ctx context.Context, offset int64) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey+offset)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
