// Package pricing implements the dynamic tariff resolution order described
// in spec §4.4, grounded on the source's PricingService
// (pricing_service.py): client override, then station-specific price, then
// the station's tariff plan rules, then a hard-coded fallback tariff.
package pricing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/observability/telemetry"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

// CacheTTL mirrors the source's PricingCache default (pricing_service.py: ttl_seconds=300).
const CacheTTL = 300 * time.Second

// DefaultRatePerKwh / DefaultCurrency / DefaultRuleDescription is the
// fallback tariff returned when nothing else resolves
// (PricingService._get_default_pricing).
var (
	DefaultRatePerKwh     = decimal.RequireFromString("13.5")
	DefaultCurrency       = "KGS"
	DefaultRuleDescription = "Базовый тариф"
)

// Resolver implements ports.PricingResolver.
type Resolver struct {
	stations ports.StationRepository
	tariffs  ports.TariffRepository
	cache    ports.Bus
	log      *zap.Logger
}

func NewResolver(stations ports.StationRepository, tariffs ports.TariffRepository, cache ports.Bus, log *zap.Logger) *Resolver {
	return &Resolver{stations: stations, tariffs: tariffs, cache: cache, log: log}
}

func (r *Resolver) Resolve(ctx context.Context, args ports.PricingArgs) (*domain.TariffSnapshot, error) {
	at := args.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	cacheKey := r.cacheKey(args, at)
	if cached, ok, err := r.cache.Get(ctx, cacheKey); err == nil && ok {
		var snapshot domain.TariffSnapshot
		if err := json.Unmarshal([]byte(cached), &snapshot); err == nil {
			r.log.Debug("pricing: cache hit", zap.String("station_id", args.StationID))
			telemetry.RecordCacheAccess(true)
			return &snapshot, nil
		}
	}
	telemetry.RecordCacheAccess(false)

	snapshot, err := r.resolveUncached(ctx, args, at)
	if err != nil {
		return nil, err
	}

	if encoded, err := json.Marshal(snapshot); err == nil {
		if err := r.cache.Set(ctx, cacheKey, string(encoded), CacheTTL); err != nil {
			r.log.Warn("pricing: failed to cache snapshot", zap.Error(err))
		}
	}

	return snapshot, nil
}

func (r *Resolver) cacheKey(args ports.PricingArgs, at time.Time) string {
	var powerStr string
	if args.PowerKw != nil {
		powerStr = fmt.Sprintf("%.2f", *args.PowerKw)
	}
	raw := fmt.Sprintf("%s|%s|%s|%s|%s", args.StationID, args.ConnectorType, powerStr, at.Truncate(time.Minute).Format(time.RFC3339), args.ClientID)
	sum := sha256.Sum256([]byte(raw))
	return "pricing:cache:" + hex.EncodeToString(sum[:])
}

func (r *Resolver) resolveUncached(ctx context.Context, args ports.PricingArgs, at time.Time) (*domain.TariffSnapshot, error) {
	// 1. Client override (fixed rate, or discounted tariff plan).
	if args.ClientID != "" {
		if snapshot, err := r.clientSnapshot(ctx, args, at); err != nil {
			return nil, err
		} else if snapshot != nil {
			return snapshot, nil
		}
	}

	station, err := r.stations.FindByID(ctx, args.StationID)
	if err != nil {
		return nil, fmt.Errorf("pricing: find station %s: %w", args.StationID, err)
	}
	if station == nil {
		return nil, fmt.Errorf("pricing: station %s not found", args.StationID)
	}

	// 2. Station-specific price.
	if station.PricePerKwh.IsPositive() {
		r.log.Info("pricing: using station-specific rate", zap.String("station_id", args.StationID))
		return &domain.TariffSnapshot{
			RatePerKwh:            station.PricePerKwh,
			SessionFee:            station.SessionFee,
			Currency:              DefaultCurrency,
			ActiveRuleDescription: "Индивидуальный тариф станции",
			RuleDetails:           fmt.Sprintf(`{"type":"station_specific","station_id":%q}`, args.StationID),
		}, nil
	}

	// 3. Tariff plan rule.
	if station.TariffPlanID != nil {
		rule, err := r.findApplicableRule(ctx, *station.TariffPlanID, args.ConnectorType, args.PowerKw, at)
		if err != nil {
			return nil, err
		}
		if rule != nil {
			return r.snapshotFromRule(*rule, at), nil
		}
	}

	// 4. Fallback.
	r.log.Warn("pricing: falling back to default tariff", zap.String("station_id", args.StationID))
	return r.defaultSnapshot(), nil
}

func (r *Resolver) clientSnapshot(ctx context.Context, args ports.PricingArgs, at time.Time) (*domain.TariffSnapshot, error) {
	ct, err := r.tariffs.FindClientTariff(ctx, args.ClientID, at)
	if err != nil {
		return nil, fmt.Errorf("pricing: find client tariff for %s: %w", args.ClientID, err)
	}
	if ct == nil {
		return nil, nil
	}

	if ct.RatePerKwh != nil {
		return &domain.TariffSnapshot{
			RatePerKwh:            *ct.RatePerKwh,
			Currency:              DefaultCurrency,
			ActiveRuleDescription: "Специальный тариф клиента",
			RuleDetails:           fmt.Sprintf(`{"type":"client_fixed","client_id":%q}`, args.ClientID),
			TariffPlanID:          ct.TariffPlanID,
		}, nil
	}

	if ct.TariffPlanID == nil {
		return nil, nil
	}

	rule, err := r.findApplicableRule(ctx, *ct.TariffPlanID, "", nil, at)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, nil
	}

	snapshot := r.snapshotFromRule(*rule, at)
	if ct.DiscountPercent.IsPositive() {
		multiplier := decimal.NewFromInt(1).Sub(ct.DiscountPercent.Div(decimal.NewFromInt(100)))
		snapshot.RatePerKwh = snapshot.RatePerKwh.Mul(multiplier).RoundBank(4)
		snapshot.RatePerMinute = snapshot.RatePerMinute.Mul(multiplier).RoundBank(4)
		snapshot.ActiveRuleDescription = fmt.Sprintf("%s (скидка %s%%)", snapshot.ActiveRuleDescription, ct.DiscountPercent.String())
	}
	return snapshot, nil
}

// findApplicableRule mirrors PricingService._find_applicable_rule: filters
// by connector type, power range, validity window and weekday/weekend, then
// picks the highest-priority rule whose time-of-day window contains `at`.
func (r *Resolver) findApplicableRule(ctx context.Context, planID, connectorType string, powerKw *float64, at time.Time) (*domain.TariffRule, error) {
	rules, err := r.tariffs.FindActiveRulesByPlan(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("pricing: find rules for plan %s: %w", planID, err)
	}

	weekday := int(at.Weekday())
	isWeekend := weekday == 0 || weekday == 6

	var best *domain.TariffRule
	for i := range rules {
		rule := rules[i]
		if !ruleApplies(rule, connectorType, powerKw, at, weekday, isWeekend) {
			continue
		}
		if best == nil || rule.Priority > best.Priority {
			r := rule
			best = &r
		}
	}
	return best, nil
}

func ruleApplies(rule domain.TariffRule, connectorType string, powerKw *float64, at time.Time, weekday int, isWeekend bool) bool {
	if !rule.IsActive {
		return false
	}
	if rule.ValidFrom != nil && at.Before(*rule.ValidFrom) {
		return false
	}
	if rule.ValidUntil != nil && at.After(*rule.ValidUntil) {
		return false
	}
	if rule.ConnectorType != "" && rule.ConnectorType != "ALL" && connectorType != "" && rule.ConnectorType != connectorType {
		return false
	}
	if rule.PowerRangeMin != nil && powerKw != nil && *powerKw < *rule.PowerRangeMin {
		return false
	}
	if rule.PowerRangeMax != nil && powerKw != nil && *powerKw > *rule.PowerRangeMax {
		return false
	}
	if len(rule.DaysOfWeek) > 0 {
		found := false
		for _, d := range rule.DaysOfWeek {
			if d == weekday {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	} else if rule.IsWeekend != isWeekend && rule.IsWeekend {
		return false
	}
	return isTimeInRange(at, rule.TimeStart, rule.TimeEnd)
}

func isTimeInRange(at time.Time, start, end string) bool {
	if start == "" || end == "" {
		return true
	}
	cur := at.Format("15:04")
	if start < end {
		return cur >= start && cur <= end
	}
	// Crosses midnight, e.g. 22:00-06:00.
	return cur >= start || cur <= end
}

func (r *Resolver) snapshotFromRule(rule domain.TariffRule, at time.Time) *domain.TariffSnapshot {
	snapshot := &domain.TariffSnapshot{
		Currency:              rule.Currency,
		ActiveRuleDescription: describeRule(rule),
		TimeBased:             rule.TimeStart != "" && rule.TimeEnd != "",
		TariffPlanID:          &rule.TariffPlanID,
		RuleID:                &rule.ID,
	}
	switch rule.Type {
	case domain.TariffTypePerKwh:
		snapshot.RatePerKwh = rule.Price
	case domain.TariffTypePerMinute:
		snapshot.RatePerMinute = rule.Price
	case domain.TariffTypeSessionFee:
		snapshot.SessionFee = rule.Price
	case domain.TariffTypeParkingFee:
		snapshot.ParkingFeePerMinute = rule.Price
	}
	return snapshot
}

func describeRule(rule domain.TariffRule) string {
	if rule.TimeStart != "" && rule.TimeEnd != "" {
		return fmt.Sprintf("%s-%s", rule.TimeStart, rule.TimeEnd)
	}
	switch rule.Type {
	case domain.TariffTypePerKwh:
		return "Тариф за энергию"
	case domain.TariffTypePerMinute:
		return "Поминутный тариф"
	case domain.TariffTypeSessionFee:
		return "Фиксированная плата"
	case domain.TariffTypeParkingFee:
		return "Плата за парковку"
	default:
		return "Специальный тариф"
	}
}

func (r *Resolver) defaultSnapshot() *domain.TariffSnapshot {
	return &domain.TariffSnapshot{
		RatePerKwh:            DefaultRatePerKwh,
		Currency:              DefaultCurrency,
		ActiveRuleDescription: DefaultRuleDescription,
		RuleDetails:           `{"type":"default"}`,
	}
}
