package charging

import (
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

func decStr(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func baseSnapshot() *domain.TariffSnapshot {
	return &domain.TariffSnapshot{RatePerKwh: decStr("10"), Currency: "KGS"}
}

func TestReservationPolicy_EnergyAndAmountLimit_ReservesMin(t *testing.T) {
	energy := decStr("10")
	amount := decStr("50")
	limit := ports.ChargeLimit{EnergyKwh: &energy, AmountSom: &amount}

	limitType, limitValue, reserved, err := reservationPolicy(limit, decStr("1000"), baseSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limitType != domain.LimitTypeEnergy {
		t.Errorf("expected LimitTypeEnergy, got %s", limitType)
	}
	if !limitValue.Equal(energy) {
		t.Errorf("expected limit value %s, got %s", energy, limitValue)
	}
	// estimatedCost(10kwh @ 10/kwh) = 100, capped by the 50 amount ceiling.
	if !reserved.Equal(amount) {
		t.Errorf("expected reserved amount capped at %s, got %s", amount, reserved)
	}
}

func TestReservationPolicy_AmountOnly_ExceedsBalanceRejected(t *testing.T) {
	amount := decStr("500")
	limit := ports.ChargeLimit{AmountSom: &amount}

	_, _, _, err := reservationPolicy(limit, decStr("100"), baseSnapshot())
	if err != ErrAmountExceedsBalance {
		t.Errorf("expected ErrAmountExceedsBalance, got %v", err)
	}
}

func TestReservationPolicy_AmountOnly_ReservesRequestedAmount(t *testing.T) {
	amount := decStr("50")
	limit := ports.ChargeLimit{AmountSom: &amount}

	limitType, limitValue, reserved, err := reservationPolicy(limit, decStr("100"), baseSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limitType != domain.LimitTypeAmount {
		t.Errorf("expected LimitTypeAmount, got %s", limitType)
	}
	if !limitValue.Equal(amount) || !reserved.Equal(amount) {
		t.Errorf("expected limit/reserved %s, got %s/%s", amount, limitValue, reserved)
	}
}

func TestReservationPolicy_EnergyOnly_ReservesEstimatedCost(t *testing.T) {
	energy := decStr("5")
	limit := ports.ChargeLimit{EnergyKwh: &energy}

	_, limitValue, reserved, err := reservationPolicy(limit, decStr("1000"), baseSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !limitValue.Equal(energy) {
		t.Errorf("expected limit value %s, got %s", energy, limitValue)
	}
	want := estimatedCost(energy, baseSnapshot())
	if !reserved.Equal(want) {
		t.Errorf("expected reserved %s, got %s", want, reserved)
	}
}

func TestReservationPolicy_NoLimit_CapsAtUnlimitedCeilingOrBalance(t *testing.T) {
	limitType, _, reserved, err := reservationPolicy(ports.ChargeLimit{}, decStr("1000"), baseSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limitType != domain.LimitTypeNone {
		t.Errorf("expected LimitTypeNone, got %s", limitType)
	}
	if !reserved.Equal(decStr("200")) {
		t.Errorf("expected reservation capped at 200, got %s", reserved)
	}
}

func TestReservationPolicy_NoLimit_LowBalanceRejected(t *testing.T) {
	_, _, _, err := reservationPolicy(ports.ChargeLimit{}, decStr("5"), baseSnapshot())
	if err != ErrInsufficientBalance {
		t.Errorf("expected ErrInsufficientBalance for balance below the floor, got %v", err)
	}
}

func TestEstimatedCost_IncludesSessionFeeAndPerMinuteRate(t *testing.T) {
	snapshot := &domain.TariffSnapshot{
		RatePerKwh:    decStr("10"),
		SessionFee:    decStr("20"),
		RatePerMinute: decStr("1"),
	}
	got := estimatedCost(decStr("5"), snapshot)
	// 5*10 + 20 + 1*60 = 130
	if !got.Equal(decStr("130")) {
		t.Errorf("expected estimated cost 130, got %s", got)
	}
}

func TestDigitsOnly(t *testing.T) {
	cases := map[string]string{
		"+996 555-000-111": "996555000111",
		"996555000111":      "996555000111",
		"no-digits":         "",
	}
	for input, want := range cases {
		if got := digitsOnly(input); got != want {
			t.Errorf("digitsOnly(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestLimitTriggered_EnergyLimit(t *testing.T) {
	session := &domain.ChargingSession{LimitType: domain.LimitTypeEnergy, LimitValue: decStr("10")}
	log := zap.NewNop()

	triggered, reason := limitTriggered(session, 9.6, decimal.Zero, log)
	if !triggered || reason != "EnergyLimitReached" {
		t.Errorf("expected energy limit to trigger at 96%% delivered, got triggered=%v reason=%s", triggered, reason)
	}

	triggered, _ = limitTriggered(session, 5.0, decimal.Zero, log)
	if triggered {
		t.Error("expected no trigger well below the limit")
	}
}

func TestLimitTriggered_AmountLimit(t *testing.T) {
	session := &domain.ChargingSession{LimitType: domain.LimitTypeAmount, LimitValue: decStr("100")}
	log := zap.NewNop()

	triggered, reason := limitTriggered(session, 0, decStr("96"), log)
	if !triggered || reason != "AmountLimitReached" {
		t.Errorf("expected amount limit to trigger at 96%% of cost, got triggered=%v reason=%s", triggered, reason)
	}

	triggered, _ = limitTriggered(session, 0, decStr("50"), log)
	if triggered {
		t.Error("expected no trigger well below the amount limit")
	}
}

func TestLimitTriggered_NoneLimit_UsesReservedAmountAndLowerThreshold(t *testing.T) {
	session := &domain.ChargingSession{LimitType: domain.LimitTypeNone, ReservedAmount: decStr("200")}
	log := zap.NewNop()

	// The "none" policy trips at 90%, tighter than the 95% used for explicit limits.
	triggered, reason := limitTriggered(session, 0, decStr("181"), log)
	if !triggered || reason != "AmountLimitReached" {
		t.Errorf("expected reserved-amount limit to trigger at 90%% of reservation, got triggered=%v reason=%s", triggered, reason)
	}

	triggered, _ = limitTriggered(session, 0, decStr("150"), log)
	if triggered {
		t.Error("expected no trigger below the 90%% threshold")
	}
}
