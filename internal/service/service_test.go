package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"deal-radar/internal/config"
	"deal-radar/internal/scoring"
	"deal-radar/internal/social"
	"deal-radar/internal/source"
	"deal-radar/internal/storage"
)

func testConfig() *config.Config {
	return &config.Config{
		Scoring: config.ScoringConfig{
			DropThresholdPct:   10,
			DropLookback:       24 * time.Hour,
			RadarHistoryPoints: 48,
			TrendHistoryPoints: 240,
		},
		Social: config.SocialConfig{
			Enabled:       true,
			Platform:      "twitter",
			ScheduleDelay: 20 * time.Minute,
			MaxChars:      260,
			HotDropPct:    20,
		},
	}
}

type fakeRepo struct {
	products    []storage.Product
	deals       []storage.DealRecord
	signals     []storage.TrendSignal
	points      []storage.PricePoint
	failDealFor string
	listErr     error
}

func (f *fakeRepo) ListProductsWithHistory(context.Context, storage.ListOptions) ([]storage.Product, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.products, nil
}

func (f *fakeRepo) UpsertProduct(_ context.Context, product storage.Product) (string, error) {
	return product.Source + "/" + product.ExternalID, nil
}

func (f *fakeRepo) AppendPricePoint(_ context.Context, point storage.PricePoint) error {
	f.points = append(f.points, point)
	return nil
}

func (f *fakeRepo) InsertDealRecord(_ context.Context, rec storage.DealRecord) (storage.DealRecord, error) {
	if f.failDealFor != "" && rec.ProductID == f.failDealFor {
		return storage.DealRecord{}, errors.New("insert rejected")
	}
	rec.CreatedAt = time.Now().UTC()
	f.deals = append(f.deals, rec)
	return rec, nil
}

func (f *fakeRepo) ListRecentDeals(context.Context, int) ([]storage.DealRecord, error) {
	return f.deals, nil
}

func (f *fakeRepo) InsertTrendSignal(_ context.Context, sig storage.TrendSignal) error {
	f.signals = append(f.signals, sig)
	return nil
}

func (f *fakeRepo) ListTrendSignals(context.Context, string, time.Time, time.Time) ([]storage.TrendSignal, error) {
	return f.signals, nil
}

type fakeAnnouncer struct {
	tasks []social.Task
	fail  bool
}

func (f *fakeAnnouncer) Announce(_ context.Context, task social.Task) error {
	if f.fail {
		return errors.New("queue unavailable")
	}
	f.tasks = append(f.tasks, task)
	return nil
}

func pricePoint(now time.Time, age time.Duration, price float64) storage.PricePoint {
	return storage.PricePoint{
		Price:     decimal.NewFromFloat(price),
		Source:    "retailerA",
		Timestamp: now.Add(-age),
	}
}

func productWithDrop(id string, now time.Time, oldPrice, newPrice float64) storage.Product {
	return storage.Product{
		ID:    id,
		Title: "Product " + id,
		History: []storage.PricePoint{
			pricePoint(now, 0, newPrice),
			pricePoint(now, 25*time.Hour, oldPrice),
		},
	}
}

func newTestService(repo *fakeRepo, announcer social.Announcer) *Service {
	return New(testConfig(), repo, repo, repo, announcer, nil, nil, zerolog.Nop())
}

func TestRunDealsRadarPendingDeal(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeRepo{products: []storage.Product{productWithDrop("p1", now, 1000, 850)}}
	announcer := &fakeAnnouncer{}

	summary, err := newTestService(repo, announcer).RunDealsRadar(context.Background())
	if err != nil {
		t.Fatalf("radar run failed: %v", err)
	}
	if summary.Drops != 1 || summary.Created != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(repo.deals) != 1 {
		t.Fatalf("expected 1 deal record, got %d", len(repo.deals))
	}

	rec := repo.deals[0]
	if rec.Score != 51 {
		t.Fatalf("15%% drop on $1000 should score 51, got %d", rec.Score)
	}
	if rec.Status != storage.DealStatusPending {
		t.Fatalf("score 51 should stay pending, got %q", rec.Status)
	}
	if len(announcer.tasks) != 0 {
		t.Fatalf("pending deals must not be announced, got %d tasks", len(announcer.tasks))
	}
}

func TestRunDealsRadarPublishesAndAnnounces(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeRepo{products: []storage.Product{productWithDrop("p1", now, 1000, 400)}}
	announcer := &fakeAnnouncer{}

	summary, err := newTestService(repo, announcer).RunDealsRadar(context.Background())
	if err != nil {
		t.Fatalf("radar run failed: %v", err)
	}
	if summary.Created != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	rec := repo.deals[0]
	if rec.Score != 100 || rec.Status != storage.DealStatusPublished {
		t.Fatalf("60%% drop should publish with score 100, got %+v", rec)
	}

	if len(announcer.tasks) != 1 {
		t.Fatalf("published deal should enqueue one announcement, got %d", len(announcer.tasks))
	}
	task := announcer.tasks[0]
	if task.DealRecordID != rec.ID {
		t.Fatalf("task should reference the stored record, got %q", task.DealRecordID)
	}
	if task.Platform != "twitter" || task.Status != social.StatusQueued {
		t.Fatalf("unexpected task: %+v", task)
	}
	if task.Content == "" {
		t.Fatal("announcement content must not be empty")
	}
	if task.ScheduledAt.Before(now.Add(19 * time.Minute)) {
		t.Fatalf("announcement should be scheduled out by the configured delay, got %v", task.ScheduledAt)
	}
}

func TestRunDealsRadarPartialFailure(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeRepo{
		products: []storage.Product{
			productWithDrop("bad", now, 1000, 400),
			productWithDrop("good", now, 1000, 400),
		},
		failDealFor: "bad",
	}
	announcer := &fakeAnnouncer{}

	summary, err := newTestService(repo, announcer).RunDealsRadar(context.Background())
	if err != nil {
		t.Fatalf("a single bad product must not abort the run: %v", err)
	}
	if summary.Drops != 2 || summary.Created != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(repo.deals) != 1 || repo.deals[0].ProductID != "good" {
		t.Fatalf("the surviving product should be persisted: %+v", repo.deals)
	}
	if len(announcer.tasks) != 1 {
		t.Fatalf("only the persisted deal should announce, got %d tasks", len(announcer.tasks))
	}
}

func TestRunDealsRadarAnnouncerFailureIsNonFatal(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeRepo{products: []storage.Product{productWithDrop("p1", now, 1000, 400)}}

	summary, err := newTestService(repo, &fakeAnnouncer{fail: true}).RunDealsRadar(context.Background())
	if err != nil {
		t.Fatalf("queue failure must not fail the batch: %v", err)
	}
	if summary.Created != 1 {
		t.Fatalf("record should still be created: %+v", summary)
	}
}

func TestRunDealsRadarSkipsSinglePointProduct(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeRepo{products: []storage.Product{{
		ID:      "lonely",
		History: []storage.PricePoint{pricePoint(now, 0, 100)},
	}}}

	summary, err := newTestService(repo, &fakeAnnouncer{}).RunDealsRadar(context.Background())
	if err != nil {
		t.Fatalf("radar run failed: %v", err)
	}
	if summary.Drops != 0 || summary.Created != 0 || len(repo.deals) != 0 {
		t.Fatalf("single-point products must produce zero records: %+v", summary)
	}
}

func TestRunDealsRadarFatalListError(t *testing.T) {
	repo := &fakeRepo{listErr: errors.New("connection refused")}
	if _, err := newTestService(repo, nil).RunDealsRadar(context.Background()); err == nil {
		t.Fatal("snapshot failure must propagate out of the entry point")
	}
}

func trendHistory(now time.Time, points int, dailyStep float64) []storage.PricePoint {
	history := make([]storage.PricePoint, 0, points)
	for i := 0; i < points; i++ {
		history = append(history, pricePoint(now, time.Duration(i)*24*time.Hour, 100+float64(i)*dailyStep))
	}
	return history
}

func TestRunTrendFinder(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeRepo{products: []storage.Product{
		{ID: "steep", History: trendHistory(now, 10, 5), MediaCount7d: 4},
		{ID: "mild", History: trendHistory(now, 10, 1)},
		{ID: "lonely", History: trendHistory(now, 1, 1)},
	}}

	summary, err := newTestService(repo, nil).RunTrendFinder(context.Background())
	if err != nil {
		t.Fatalf("trend run failed: %v", err)
	}
	if summary.Analyzed != 2 || summary.Updated != 2 {
		t.Fatalf("short-history product should be omitted: %+v", summary)
	}
	if summary.TopScore <= 0 || summary.TopScore > 100 {
		t.Fatalf("top score out of range: %d", summary.TopScore)
	}

	if len(repo.signals) != 2 {
		t.Fatalf("expected 2 trend signals, got %d", len(repo.signals))
	}
	first := repo.signals[0]
	if first.ProductID != "steep" {
		t.Fatalf("signals should be written in rank order, got %q first", first.ProductID)
	}
	if first.SignalType != storage.SignalComposite {
		t.Fatalf("unexpected signal type %q", first.SignalType)
	}
	if int(first.Value) != summary.TopScore {
		t.Fatalf("top signal value %v should match top score %d", first.Value, summary.TopScore)
	}

	var inputs scoring.TrendInputs
	if err := json.Unmarshal(first.Metadata, &inputs); err != nil {
		t.Fatalf("metadata should carry the component signals: %v", err)
	}
	if inputs.MediaCount7d != 4 {
		t.Fatalf("media count lost in metadata: %+v", inputs)
	}
}

func TestRunTrendFinderIdempotent(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeRepo{products: []storage.Product{
		{ID: "a", History: trendHistory(now, 10, 2)},
	}}
	svc := newTestService(repo, nil)

	first, err := svc.RunTrendFinder(context.Background())
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := svc.RunTrendFinder(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if first.TopScore != second.TopScore {
		t.Fatalf("identical history must score identically: %d vs %d", first.TopScore, second.TopScore)
	}
	if len(repo.signals) != 2 {
		t.Fatalf("each run appends its own signal row, got %d", len(repo.signals))
	}
}

func TestRunPriceWatch(t *testing.T) {
	repo := &fakeRepo{}
	adapters := []source.Adapter{
		source.NewStatic("retailerA", source.DemoCatalog("retailerA")),
		source.NewStatic("retailerB", source.DemoCatalog("retailerB")),
	}
	svc := New(testConfig(), repo, repo, repo, nil, nil, adapters, zerolog.Nop())

	summary, err := svc.RunPriceWatch(context.Background())
	if err != nil {
		t.Fatalf("price watch failed: %v", err)
	}
	if summary.Fetched == 0 || summary.Appended != summary.Fetched {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(repo.points) != summary.Appended {
		t.Fatalf("expected %d appended points, got %d", summary.Appended, len(repo.points))
	}
	for _, point := range repo.points {
		if point.Price.Sign() <= 0 {
			t.Fatalf("non-positive price persisted: %s", point.Price)
		}
		if point.ProductID == "" {
			t.Fatal("points must reference the upserted product")
		}
	}
}
