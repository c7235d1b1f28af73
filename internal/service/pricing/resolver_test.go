package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/mocks"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

func newTestResolver(stations *mocks.MockStationRepository, tariffs *mocks.MockTariffRepository, bus *mocks.MockBus) *Resolver {
	return NewResolver(stations, tariffs, bus, zap.NewNop())
}

// newFakeCacheBus backs Get/Set with an in-memory map so cache-hit
// behavior can actually be exercised, unlike the zero-value MockBus
// (which always reports a cache miss).
func newFakeCacheBus() *mocks.MockBus {
	store := make(map[string]string)
	bus := &mocks.MockBus{}
	bus.GetFunc = func(ctx context.Context, key string) (string, bool, error) {
		v, ok := store[key]
		return v, ok, nil
	}
	bus.SetFunc = func(ctx context.Context, key, value string, ttl time.Duration) error {
		store[key] = value
		return nil
	}
	return bus
}

func TestResolver_DefaultFallback(t *testing.T) {
	stations := &mocks.MockStationRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Station, error) {
			return &domain.Station{ID: id, PricePerKwh: decimal.Zero}, nil
		},
	}
	tariffs := &mocks.MockTariffRepository{}
	bus := &mocks.MockBus{}

	r := newTestResolver(stations, tariffs, bus)
	snapshot, err := r.Resolve(context.Background(), ports.PricingArgs{StationID: "CP001"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snapshot.RatePerKwh.Equal(DefaultRatePerKwh) {
		t.Errorf("expected default rate %s, got %s", DefaultRatePerKwh, snapshot.RatePerKwh)
	}
	if snapshot.ActiveRuleDescription != DefaultRuleDescription {
		t.Errorf("expected default rule description, got %q", snapshot.ActiveRuleDescription)
	}
}

func TestResolver_StationSpecificRate(t *testing.T) {
	stationRate := decimal.RequireFromString("9.99")
	stations := &mocks.MockStationRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Station, error) {
			return &domain.Station{ID: id, PricePerKwh: stationRate, SessionFee: decimal.RequireFromString("20")}, nil
		},
	}
	tariffs := &mocks.MockTariffRepository{}
	bus := &mocks.MockBus{}

	r := newTestResolver(stations, tariffs, bus)
	snapshot, err := r.Resolve(context.Background(), ports.PricingArgs{StationID: "CP002"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snapshot.RatePerKwh.Equal(stationRate) {
		t.Errorf("expected station rate %s, got %s", stationRate, snapshot.RatePerKwh)
	}
	if !snapshot.SessionFee.Equal(decimal.RequireFromString("20")) {
		t.Errorf("expected session fee 20, got %s", snapshot.SessionFee)
	}
}

func TestResolver_TariffPlanRule(t *testing.T) {
	planID := "plan-1"
	stations := &mocks.MockStationRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Station, error) {
			return &domain.Station{ID: id, PricePerKwh: decimal.Zero, TariffPlanID: &planID}, nil
		},
	}
	ruleRate := decimal.RequireFromString("15.0")
	tariffs := &mocks.MockTariffRepository{
		FindActiveRulesByPlanFunc: func(ctx context.Context, pid string) ([]domain.TariffRule, error) {
			if pid != planID {
				t.Fatalf("expected plan id %s, got %s", planID, pid)
			}
			return []domain.TariffRule{
				{ID: "rule-1", TariffPlanID: planID, Type: domain.TariffTypePerKwh, Price: ruleRate, IsActive: true, Priority: 1},
			}, nil
		},
	}
	bus := &mocks.MockBus{}

	r := newTestResolver(stations, tariffs, bus)
	snapshot, err := r.Resolve(context.Background(), ports.PricingArgs{StationID: "CP003"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snapshot.RatePerKwh.Equal(ruleRate) {
		t.Errorf("expected rule rate %s, got %s", ruleRate, snapshot.RatePerKwh)
	}
}

func TestResolver_HighestPriorityRuleWins(t *testing.T) {
	planID := "plan-1"
	stations := &mocks.MockStationRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Station, error) {
			return &domain.Station{ID: id, PricePerKwh: decimal.Zero, TariffPlanID: &planID}, nil
		},
	}
	lowRate := decimal.RequireFromString("10.0")
	highRate := decimal.RequireFromString("20.0")
	tariffs := &mocks.MockTariffRepository{
		FindActiveRulesByPlanFunc: func(ctx context.Context, pid string) ([]domain.TariffRule, error) {
			return []domain.TariffRule{
				{ID: "rule-low", TariffPlanID: planID, Type: domain.TariffTypePerKwh, Price: lowRate, IsActive: true, Priority: 1},
				{ID: "rule-high", TariffPlanID: planID, Type: domain.TariffTypePerKwh, Price: highRate, IsActive: true, Priority: 10},
			}, nil
		},
	}
	bus := &mocks.MockBus{}

	r := newTestResolver(stations, tariffs, bus)
	snapshot, err := r.Resolve(context.Background(), ports.PricingArgs{StationID: "CP004"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snapshot.RatePerKwh.Equal(highRate) {
		t.Errorf("expected higher-priority rate %s, got %s", highRate, snapshot.RatePerKwh)
	}
}

func TestResolver_ClientFixedRateOverridesStation(t *testing.T) {
	clientRate := decimal.RequireFromString("5.0")
	stations := &mocks.MockStationRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Station, error) {
			return &domain.Station{ID: id, PricePerKwh: decimal.RequireFromString("99")}, nil
		},
	}
	tariffs := &mocks.MockTariffRepository{
		FindClientTariffFunc: func(ctx context.Context, clientID string, at time.Time) (*domain.ClientTariff, error) {
			return &domain.ClientTariff{ID: "ct-1", ClientID: clientID, RatePerKwh: &clientRate}, nil
		},
	}
	bus := &mocks.MockBus{}

	r := newTestResolver(stations, tariffs, bus)
	snapshot, err := r.Resolve(context.Background(), ports.PricingArgs{StationID: "CP005", ClientID: "client-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snapshot.RatePerKwh.Equal(clientRate) {
		t.Errorf("expected client fixed rate %s, got %s", clientRate, snapshot.RatePerKwh)
	}
}

func TestResolver_ClientDiscountAppliesToPlanRule(t *testing.T) {
	planID := "plan-2"
	baseRate := decimal.RequireFromString("10.0")
	discount := decimal.RequireFromString("20")
	stations := &mocks.MockStationRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Station, error) {
			return &domain.Station{ID: id, PricePerKwh: decimal.Zero}, nil
		},
	}
	tariffs := &mocks.MockTariffRepository{
		FindClientTariffFunc: func(ctx context.Context, clientID string, at time.Time) (*domain.ClientTariff, error) {
			return &domain.ClientTariff{ID: "ct-2", ClientID: clientID, TariffPlanID: &planID, DiscountPercent: discount}, nil
		},
		FindActiveRulesByPlanFunc: func(ctx context.Context, pid string) ([]domain.TariffRule, error) {
			return []domain.TariffRule{
				{ID: "rule-1", TariffPlanID: planID, Type: domain.TariffTypePerKwh, Price: baseRate, IsActive: true, Priority: 1},
			}, nil
		},
	}
	bus := &mocks.MockBus{}

	r := newTestResolver(stations, tariffs, bus)
	snapshot, err := r.Resolve(context.Background(), ports.PricingArgs{StationID: "CP006", ClientID: "client-2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := baseRate.Mul(decimal.RequireFromString("0.8")).RoundBank(4)
	if !snapshot.RatePerKwh.Equal(want) {
		t.Errorf("expected discounted rate %s, got %s", want, snapshot.RatePerKwh)
	}
}

func TestResolver_ResultIsCached(t *testing.T) {
	calls := 0
	stations := &mocks.MockStationRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Station, error) {
			calls++
			return &domain.Station{ID: id, PricePerKwh: decimal.RequireFromString("7.0")}, nil
		},
	}
	tariffs := &mocks.MockTariffRepository{}
	bus := newFakeCacheBus()

	r := newTestResolver(stations, tariffs, bus)
	args := ports.PricingArgs{StationID: "CP007"}

	first, err := r.Resolve(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.Resolve(context.Background(), args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected station lookup once (second call served from cache), got %d calls", calls)
	}
	if !first.RatePerKwh.Equal(second.RatePerKwh) {
		t.Errorf("expected cached snapshot to match original")
	}
}

func TestIsTimeInRange(t *testing.T) {
	cases := []struct {
		name  string
		at    string
		start string
		end   string
		want  bool
	}{
		{"within same-day window", "14:30", "09:00", "18:00", true},
		{"outside same-day window", "20:00", "09:00", "18:00", false},
		{"within overnight window", "23:30", "22:00", "06:00", true},
		{"outside overnight window", "12:00", "22:00", "06:00", false},
		{"unbounded rule always matches", "03:00", "", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			at, err := time.Parse("15:04", tc.at)
			if err != nil {
				t.Fatalf("failed to parse time: %v", err)
			}
			got := isTimeInRange(at, tc.start, tc.end)
			if got != tc.want {
				t.Errorf("isTimeInRange(%s, %s, %s) = %v, want %v", tc.at, tc.start, tc.end, got, tc.want)
			}
		})
	}
}
