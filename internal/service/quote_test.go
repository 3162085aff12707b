package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/swiftfreight/quote-engine/internal/config"
	"github.com/swiftfreight/quote-engine/internal/db"
	"github.com/swiftfreight/quote-engine/internal/distance"
	"github.com/swiftfreight/quote-engine/internal/models"
	"github.com/swiftfreight/quote-engine/internal/pricing"
	"github.com/swiftfreight/quote-engine/internal/ratelimit"
	"github.com/swiftfreight/quote-engine/internal/review"
	"github.com/swiftfreight/quote-engine/internal/zipdb"
)

type fixedProvider struct {
	miles float64
	hours float64
}

func (p fixedProvider) Route(context.Context, zipdb.Info, zipdb.Info) (models.RouteDistance, error) {
	return models.RouteDistance{Miles: p.miles, DurationHours: p.hours}, nil
}

func testService(store db.QuoteStore) *QuoteService {
	tariff := config.DefaultTariff()
	limiter := ratelimit.New(map[string]ratelimit.BucketConfig{
		"routing": {Capacity: 100, RefillPerSec: 100},
	}, ratelimit.BucketConfig{})

	return &QuoteService{
		Resolver: distance.NewResolver(fixedProvider{miles: 500, hours: 8}, limiter, zerolog.Nop()),
		Pricer:   pricing.NewEngine(tariff),
		Router:   review.NewRouter(tariff),
		Queue:    review.NewQueue(tariff.QueueCapacity),
		Store:    store,
		Logger:   zerolog.Nop(),
		Clock:    func() time.Time { return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC) },
	}
}

func rawElectronics() models.RawShipment {
	return models.RawShipment{
		OriginZip:       "90021",
		DestinationZip:  "60601",
		WeightLbs:       800,
		Pieces:          2,
		Dimensions:      models.Dimensions{Length: 48, Width: 40, Height: 60},
		Commodity:       "electronics",
		SpecialServices: []string{"liftgate"},
		EquipmentType:   "dry_van",
		PickupDate:      "2026-03-10",
		DeclaredValue:   3000,
	}
}

func TestCreateQuoteAutoApproves(t *testing.T) {
	store := db.NewMemory()
	svc := testService(store)

	res, err := svc.CreateQuote(context.Background(), rawElectronics(), models.ExtractionConfidence{Overall: 0.93})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Quote.Status != models.StatusAutoApproved {
		t.Fatalf("expected auto approval, got %s", res.Quote.Status)
	}
	if res.QueueItem != nil {
		t.Fatalf("auto-approved quote must not enter the queue")
	}

	stored, err := store.GetQuote(context.Background(), res.Quote.ID)
	if err != nil {
		t.Fatalf("persisted quote missing: %v", err)
	}
	if stored.Status != models.StatusAutoApproved {
		t.Fatalf("stored status: %s", stored.Status)
	}
}

func TestCreateQuoteLowConfidenceGoesToReview(t *testing.T) {
	svc := testService(db.NewMemory())

	res, err := svc.CreateQuote(context.Background(), rawElectronics(), models.ExtractionConfidence{Overall: 0.5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Quote.Status != models.StatusQueuedForReview {
		t.Fatalf("expected review, got %s", res.Quote.Status)
	}
	if res.QueueItem == nil || res.QueueItem.Priority != models.PriorityHigh {
		t.Fatalf("expected high-priority queue item, got %+v", res.QueueItem)
	}
}

func TestCreateQuoteHazmatIsUrgent(t *testing.T) {
	svc := testService(db.NewMemory())
	raw := rawElectronics()
	raw.Hazmat = true
	raw.HazmatClass = "3"

	res, err := svc.CreateQuote(context.Background(), raw, models.ExtractionConfidence{Overall: 0.95})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.QueueItem == nil || res.QueueItem.Priority != models.PriorityUrgent {
		t.Fatalf("hazmat must queue urgent, got %+v", res.QueueItem)
	}
}

func TestCreateQuoteValidationFailureStoresNothing(t *testing.T) {
	store := db.NewMemory()
	svc := testService(store)
	raw := rawElectronics()
	raw.OriginZip = "not-a-zip"
	raw.WeightLbs = -5

	_, err := svc.CreateQuote(context.Background(), raw, models.ExtractionConfidence{Overall: 0.9})
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields) < 2 {
		t.Fatalf("expected all field errors collected, got %+v", verr.Fields)
	}
	if quotes, _ := store.ListQuotes(context.Background(), "", 50, 0); len(quotes) != 0 {
		t.Fatalf("invalid payload must not persist a quote")
	}
}

func TestClaimAndApprove(t *testing.T) {
	store := db.NewMemory()
	svc := testService(store)

	res, err := svc.CreateQuote(context.Background(), rawElectronics(), models.ExtractionConfidence{Overall: 0.5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	item, quote, ok, err := svc.ClaimNext(context.Background(), "ops-1")
	if err != nil || !ok {
		t.Fatalf("claim: ok=%v err=%v", ok, err)
	}
	if quote.ID != res.Quote.ID {
		t.Fatalf("claimed wrong quote: %s", quote.ID)
	}

	decided, err := svc.Decide(context.Background(), item.ID, models.DecisionApprove, "ops-1", "checked rates", nil)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decided.Quote.Status != models.StatusApproved {
		t.Fatalf("expected approved, got %s", decided.Quote.Status)
	}

	stored, _ := store.GetQuote(context.Background(), res.Quote.ID)
	if stored.Status != models.StatusApproved {
		t.Fatalf("stored status: %s", stored.Status)
	}
	if decisions := store.Decisions(res.Quote.ID); len(decisions) != 1 || decisions[0].Action != models.DecisionApprove {
		t.Fatalf("decision not recorded: %+v", decisions)
	}

	// The item is gone; deciding it again must fail.
	if _, err := svc.Decide(context.Background(), item.ID, models.DecisionReject, "ops-2", "", nil); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestEditProducesSupersedingQuote(t *testing.T) {
	store := db.NewMemory()
	svc := testService(store)

	res, err := svc.CreateQuote(context.Background(), rawElectronics(), models.ExtractionConfidence{Overall: 0.5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	item, _, _, err := svc.ClaimNext(context.Background(), "ops-1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}

	corrected := rawElectronics()
	corrected.WeightLbs = 1200

	replacement, err := svc.Decide(context.Background(), item.ID, models.DecisionEdit, "ops-1", "weight was misread", &corrected)
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if replacement.Quote.ID == res.Quote.ID {
		t.Fatalf("edit must mint a new quote")
	}
	if replacement.Quote.Supersedes != res.Quote.ID {
		t.Fatalf("replacement must link the edited quote, got %q", replacement.Quote.Supersedes)
	}
	if replacement.Quote.Request.WeightLbs != 1200 {
		t.Fatalf("corrected payload not repriced: %+v", replacement.Quote.Request)
	}

	old, _ := store.GetQuote(context.Background(), res.Quote.ID)
	if old.Status != models.StatusEdited {
		t.Fatalf("edited quote status: %s", old.Status)
	}
	if _, err := store.GetQuote(context.Background(), replacement.Quote.ID); err != nil {
		t.Fatalf("replacement not persisted: %v", err)
	}
}

func TestEditWithoutPayloadFails(t *testing.T) {
	svc := testService(db.NewMemory())
	if _, err := svc.CreateQuote(context.Background(), rawElectronics(), models.ExtractionConfidence{Overall: 0.5}); err != nil {
		t.Fatalf("create: %v", err)
	}
	item, _, _, _ := svc.ClaimNext(context.Background(), "ops-1")
	if _, err := svc.Decide(context.Background(), item.ID, models.DecisionEdit, "ops-1", "", nil); err == nil {
		t.Fatalf("edit without a corrected payload must fail")
	}
}
