// Package charging implements the wallet-affecting session engine (spec
// §4.3), grounded on the source's ChargingService (charging/service.go):
// StartCharging/StopCharging preconditions, the reservation-policy table,
// settlement math, MeterValues-driven limit enforcement, BootNotification
// reconciliation and the hourly hanging-session sweep.
package charging

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/observability/telemetry"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

// Sentinel errors, matched against by the HTTP layer to pick status codes.
var (
	ErrClientNotActive       = errors.New("client_not_active")
	ErrStationOffline        = errors.New("station_offline")
	ErrStationNeverConnected = errors.New("station_never_connected")
	ErrStationNotActive      = errors.New("station_not_active")
	ErrConnectorNotAvailable = errors.New("connector_not_available")
	ErrSessionAlreadyActive  = errors.New("session_already_active")
	ErrAmountExceedsBalance  = errors.New("amount_exceeds_balance")
	ErrInsufficientBalance   = errors.New("insufficient_balance")
	ErrSessionNotFound       = errors.New("session_not_found")
	ErrSessionNotOwned       = errors.New("session_not_owned")
	ErrSessionNotStarted     = errors.New("session_not_started")
)

// unlimitedReserveCap / unlimitedReserveFloor implement the "neither" row of
// the reservation-policy table (spec §4.3).
const (
	unlimitedReserveCap   = "200"
	unlimitedReserveFloor = "10"
	// durationEstimateMinutes approximates the session length used to size
	// the energy-limit reservation (spec §4.3: duration≈60m).
	durationEstimateMinutes = 60

	// Limit-enforcement thresholds (spec §4.3); the 0.90 factor for the
	// "none" policy is a literal spec constant reflecting meter sampling
	// latency and must not be tightened independently of meter cadence.
	energyLimitTriggerFraction = "0.95"
	amountLimitTriggerFraction = "0.95"
	noneLimitTriggerFraction   = "0.90"
	limitWarnFraction          = "0.80"

	hangingSessionAge = 12 * time.Hour
)

// Service implements ports.ChargingSessionService.
type Service struct {
	db       *gorm.DB
	clients  ports.ClientRepository
	stations ports.StationRepository
	sessions ports.ChargingSessionRepository
	ocppTxns ports.OcppTransactionRepository
	tariffs  ports.TariffRepository
	pricing  ports.PricingResolver
	commands ports.OCPPCommandService
	bus      ports.Bus
	log      *zap.Logger
}

func NewService(
	gdb *gorm.DB,
	clients ports.ClientRepository,
	stations ports.StationRepository,
	sessions ports.ChargingSessionRepository,
	ocppTxns ports.OcppTransactionRepository,
	tariffs ports.TariffRepository,
	pricing ports.PricingResolver,
	commands ports.OCPPCommandService,
	bus ports.Bus,
	log *zap.Logger,
) *Service {
	return &Service{
		db:       gdb,
		clients:  clients,
		stations: stations,
		sessions: sessions,
		ocppTxns: ocppTxns,
		tariffs:  tariffs,
		pricing:  pricing,
		commands: commands,
		bus:      bus,
		log:      log,
	}
}

func (s *Service) StartCharging(ctx context.Context, clientID, stationID string, connectorID int, limit ports.ChargeLimit) (*ports.StartChargingResult, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("charging: find client: %w", err)
	}
	if client == nil || client.Status != domain.ClientStatusActive {
		return nil, ErrClientNotActive
	}

	station, err := s.stations.FindByID(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("charging: find station: %w", err)
	}
	if station == nil || station.AdminStatus != domain.StationAdminStatusActive {
		return nil, ErrStationNotActive
	}
	online, err := s.bus.IsOnline(ctx, stationID)
	if err != nil {
		return nil, fmt.Errorf("charging: check station online: %w", err)
	}
	if !online {
		if station.FirmwareVersion == "" {
			return nil, ErrStationNeverConnected
		}
		return nil, ErrStationOffline
	}

	connector, err := s.stations.FindConnector(ctx, stationID, connectorID)
	if err != nil {
		return nil, fmt.Errorf("charging: find connector: %w", err)
	}
	if connector == nil || connector.Status != domain.ConnectorStatusAvailable {
		return nil, ErrConnectorNotAvailable
	}

	if active, err := s.sessions.FindActiveByClient(ctx, clientID); err != nil {
		return nil, fmt.Errorf("charging: find active session: %w", err)
	} else if active != nil {
		return nil, ErrSessionAlreadyActive
	}

	powerKw := connector.PowerKw
	snapshot, err := s.pricing.Resolve(ctx, ports.PricingArgs{
		StationID:     stationID,
		ConnectorType: connector.ConnectorType,
		PowerKw:       &powerKw,
		At:            time.Now().UTC(),
		ClientID:      clientID,
	})
	if err != nil {
		return nil, fmt.Errorf("charging: resolve pricing: %w", err)
	}

	limitType, limitValue, reservedAmount, err := reservationPolicy(limit, client.Balance, snapshot)
	if err != nil {
		return nil, err
	}

	session := &domain.ChargingSession{
		ID:             uuid.New().String(),
		ClientID:       clientID,
		StationID:      stationID,
		ConnectorID:    connectorID,
		Status:         domain.SessionStatusPending,
		LimitType:      limitType,
		LimitValue:     limitValue,
		ReservedAmount: reservedAmount,
		StartTime:      time.Now().UTC(),
	}

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		balanceAfter, err := s.clients.UpdateBalanceTx(ctx, tx, clientID, reservedAmount.Neg())
		if err != nil {
			return ErrInsufficientBalance
		}

		snapshot.ID = uuid.New().String()
		if err := s.tariffs.SaveSnapshot(ctx, tx, snapshot); err != nil {
			return fmt.Errorf("save pricing snapshot: %w", err)
		}

		session.PricingHistoryID = &snapshot.ID
		if err := s.sessions.SaveTx(ctx, tx, session); err != nil {
			return fmt.Errorf("save session: %w", err)
		}

		pt := &domain.PaymentTransaction{
			ClientID:          clientID,
			ChargingSessionID: &session.ID,
			Type:              domain.PaymentTxnChargeReserve,
			Amount:            reservedAmount,
			BalanceBefore:     client.Balance,
			BalanceAfter:      balanceAfter,
			Description:       "Резервирование средств на зарядную сессию",
			CreatedAt:         time.Now().UTC(),
		}
		if err := s.sessions.SavePaymentTransactionTx(ctx, tx, pt); err != nil {
			return fmt.Errorf("save payment transaction: %w", err)
		}

		connector.Status = domain.ConnectorStatusOccupied
		connector.LastStatusAt = time.Now().UTC()
		if err := s.stations.SaveConnector(ctx, connector); err != nil {
			return fmt.Errorf("mark connector occupied: %w", err)
		}

		return nil
	}); err != nil {
		if errors.Is(err, ErrInsufficientBalance) {
			return nil, ErrInsufficientBalance
		}
		return nil, fmt.Errorf("charging: start transaction: %w", err)
	}

	kvKey := fmt.Sprintf("pending:%s:%d", stationID, connectorID)
	if err := s.bus.Set(ctx, kvKey, session.ID, 0); err != nil {
		s.log.Warn("charging: failed to write pending kv", zap.Error(err), zap.String("session_id", session.ID))
	}

	idTag := digitsOnly(client.Phone)
	if err := s.commands.RemoteStartTransaction(ctx, stationID, connectorID, idTag, session.ID, limit); err != nil {
		s.log.Warn("charging: remote start publish failed, session stays pending", zap.Error(err), zap.String("session_id", session.ID))
	}

	telemetry.RecordTransactionStarted()

	return &ports.StartChargingResult{Session: session, StationOnline: online}, nil
}

// reservationPolicy implements the spec §4.3 reservation-policy table.
func reservationPolicy(limit ports.ChargeLimit, balance decimal.Decimal, snapshot *domain.TariffSnapshot) (domain.LimitType, decimal.Decimal, decimal.Decimal, error) {
	switch {
	case limit.EnergyKwh != nil && limit.AmountSom != nil:
		cost := estimatedCost(*limit.EnergyKwh, snapshot)
		reserved := decimal.Min(cost, *limit.AmountSom)
		return domain.LimitTypeEnergy, *limit.EnergyKwh, reserved, nil

	case limit.AmountSom != nil:
		if limit.AmountSom.GreaterThan(balance) {
			return "", decimal.Zero, decimal.Zero, ErrAmountExceedsBalance
		}
		reserved := decimal.Min(balance, *limit.AmountSom)
		return domain.LimitTypeAmount, *limit.AmountSom, reserved, nil

	case limit.EnergyKwh != nil:
		cost := estimatedCost(*limit.EnergyKwh, snapshot)
		return domain.LimitTypeEnergy, *limit.EnergyKwh, cost, nil

	default:
		cap := decimal.RequireFromString(unlimitedReserveCap).Add(snapshot.SessionFee)
		reserved := decimal.Min(balance, cap)
		if reserved.LessThan(decimal.RequireFromString(unlimitedReserveFloor)) {
			return "", decimal.Zero, decimal.Zero, ErrInsufficientBalance
		}
		return domain.LimitTypeNone, decimal.Zero, reserved, nil
	}
}

func estimatedCost(energyKwh decimal.Decimal, snapshot *domain.TariffSnapshot) decimal.Decimal {
	cost := energyKwh.Mul(snapshot.RatePerKwh).Add(snapshot.SessionFee)
	if snapshot.RatePerMinute.IsPositive() {
		cost = cost.Add(snapshot.RatePerMinute.Mul(decimal.NewFromInt(durationEstimateMinutes)))
	}
	return cost.RoundBank(2)
}

func digitsOnly(phone string) string {
	out := make([]rune, 0, len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			out = append(out, r)
		}
	}
	return string(out)
}

func (s *Service) StopCharging(ctx context.Context, sessionID, clientID string) (*domain.ChargingSession, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("charging: find session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	if session.ClientID != clientID {
		return nil, ErrSessionNotOwned
	}
	if session.Status != domain.SessionStatusStarted {
		return nil, ErrSessionNotStarted
	}

	snapshot, err := s.pricing.Resolve(ctx, ports.PricingArgs{StationID: session.StationID, At: time.Now().UTC(), ClientID: clientID})
	if err != nil {
		return nil, fmt.Errorf("charging: resolve pricing for settlement: %w", err)
	}

	actualEnergyKwh, err := s.actualEnergy(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("charging: compute actual energy: %w", err)
	}

	actualCost := decimal.NewFromFloat(actualEnergyKwh).Mul(snapshot.RatePerKwh).Add(snapshot.SessionFee)
	if snapshot.RatePerMinute.IsPositive() {
		duration := time.Since(session.StartTime).Minutes()
		actualCost = actualCost.Add(snapshot.RatePerMinute.Mul(decimal.NewFromFloat(duration)))
	}
	actualCost = actualCost.RoundBank(2)

	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("charging: find client: %w", err)
	}
	if client == nil {
		return nil, ErrClientNotActive
	}

	now := time.Now().UTC()
	var ocppTransactionID *int
	var stationOnline bool

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		if actualCost.GreaterThan(session.ReservedAmount) {
			overdraft := actualCost.Sub(session.ReservedAmount)
			debit := decimal.Min(overdraft, client.Balance)
			if debit.IsPositive() {
				balanceAfter, err := s.clients.UpdateBalanceTx(ctx, tx, clientID, debit.Neg())
				if err != nil {
					return fmt.Errorf("debit overdraft: %w", err)
				}
				if err := s.sessions.SavePaymentTransactionTx(ctx, tx, &domain.PaymentTransaction{
					ClientID:          clientID,
					ChargingSessionID: &session.ID,
					Type:              domain.PaymentTxnChargePayment,
					Amount:            debit,
					BalanceBefore:     client.Balance,
					BalanceAfter:      balanceAfter,
					Description:       "Доплата за перерасход",
					CreatedAt:         now,
				}); err != nil {
					return err
				}
			}
			if debit.LessThan(overdraft) {
				s.log.Warn("charging: balance could not cover full overdraft", zap.String("session_id", session.ID), zap.String("shortfall", overdraft.Sub(debit).String()))
			}
		} else {
			refund := session.ReservedAmount.Sub(actualCost)
			if refund.IsPositive() {
				balanceAfter, err := s.clients.UpdateBalanceTx(ctx, tx, clientID, refund)
				if err != nil {
					return fmt.Errorf("refund unused reservation: %w", err)
				}
				if err := s.sessions.SavePaymentTransactionTx(ctx, tx, &domain.PaymentTransaction{
					ClientID:          clientID,
					ChargingSessionID: &session.ID,
					Type:              domain.PaymentTxnChargeRefund,
					Amount:            refund,
					BalanceBefore:     client.Balance,
					BalanceAfter:      balanceAfter,
					Description:       "Возврат неиспользованного резерва",
					CreatedAt:         now,
				}); err != nil {
					return err
				}
			}
		}

		session.Status = domain.SessionStatusStopped
		session.StopTime = &now
		session.ActualEnergyKwh = actualEnergyKwh
		session.FinalAmount = actualCost
		if err := s.sessions.SaveTx(ctx, tx, session); err != nil {
			return fmt.Errorf("save session: %w", err)
		}

		connector, err := s.stations.FindConnector(ctx, session.StationID, session.ConnectorID)
		if err == nil && connector != nil {
			connector.Status = domain.ConnectorStatusAvailable
			connector.LastStatusAt = now
			if err := s.stations.SaveConnector(ctx, connector); err != nil {
				return fmt.Errorf("release connector: %w", err)
			}
		}

		ocppTransactionID = session.OcppTransactionID
		return nil
	}); err != nil {
		return nil, fmt.Errorf("charging: stop transaction: %w", err)
	}

	if online, err := s.bus.IsOnline(ctx, session.StationID); err == nil {
		stationOnline = online
	}
	if stationOnline && ocppTransactionID != nil {
		if err := s.commands.RemoteStopTransaction(ctx, session.StationID, *ocppTransactionID, "Local"); err != nil {
			s.log.Warn("charging: remote stop publish failed", zap.Error(err), zap.String("session_id", session.ID))
		}
	}

	costFloat, _ := actualCost.Float64()
	telemetry.RecordTransactionCompleted(actualEnergyKwh, costFloat, snapshot.Currency, now.Sub(session.StartTime).Seconds())

	return session, nil
}

// actualEnergy implements the three-tier fallback in spec §4.3 step 2.
func (s *Service) actualEnergy(ctx context.Context, session *domain.ChargingSession) (float64, error) {
	if session.OcppTransactionID == nil {
		return 0, nil
	}
	txn, err := s.ocppTxns.FindByStationAndTransactionID(ctx, session.StationID, *session.OcppTransactionID)
	if err != nil {
		return 0, err
	}
	if txn == nil {
		return 0, nil
	}
	if txn.MeterStop > 0 {
		return float64(txn.MeterStop-txn.MeterStart) / 1000.0, nil
	}
	last, err := s.ocppTxns.LastMeterValue(ctx, txn.ID)
	if err != nil {
		return 0, err
	}
	if last == nil {
		return 0, nil
	}
	return float64(last.EnergyActiveImportWh-txn.MeterStart) / 1000.0, nil
}

func (s *Service) GetSession(ctx context.Context, sessionID string) (*domain.ChargingSession, error) {
	return s.sessions.FindByID(ctx, sessionID)
}

func (s *Service) GetActiveSessionByClient(ctx context.Context, clientID string) (*domain.ChargingSession, error) {
	return s.sessions.FindActiveByClient(ctx, clientID)
}

// OnMeterValue implements limit enforcement (spec §4.3), driven by each
// Energy.Active.Import.Register sample reported over MeterValues.
func (s *Service) OnMeterValue(ctx context.Context, ocppTransactionID uint, energyActiveImportWh int) error {
	txn, err := s.ocppTxns.FindByID(ctx, ocppTransactionID)
	if err != nil {
		return fmt.Errorf("charging: find ocpp transaction: %w", err)
	}
	if txn == nil {
		return nil
	}

	mv := &domain.MeterValue{
		OcppTransactionID:    ocppTransactionID,
		ConnectorID:          txn.ConnectorID,
		Timestamp:            time.Now().UTC(),
		EnergyActiveImportWh: energyActiveImportWh,
	}
	if err := s.ocppTxns.AppendMeterValue(ctx, mv); err != nil {
		return fmt.Errorf("charging: append meter value: %w", err)
	}

	if txn.ChargingSessionID == nil {
		return nil
	}
	session, err := s.sessions.FindByID(ctx, *txn.ChargingSessionID)
	if err != nil || session == nil || session.Status != domain.SessionStatusStarted {
		return err
	}

	energyDeliveredKwh := float64(energyActiveImportWh-txn.MeterStart) / 1000.0
	if energyDeliveredKwh < 0 {
		energyDeliveredKwh = 0
	}

	snapshot, err := s.pricing.Resolve(ctx, ports.PricingArgs{StationID: session.StationID, At: time.Now().UTC(), ClientID: session.ClientID})
	if err != nil {
		return fmt.Errorf("charging: resolve pricing for limit check: %w", err)
	}
	cost := decimal.NewFromFloat(energyDeliveredKwh).Mul(snapshot.RatePerKwh)

	triggered, reason := limitTriggered(session, energyDeliveredKwh, cost, s.log)
	if !triggered {
		return nil
	}

	s.log.Info("charging: limit reached, requesting remote stop", zap.String("session_id", session.ID), zap.String("reason", reason))
	return s.commands.RemoteStopTransaction(ctx, session.StationID, int(ocppTransactionID), reason)
}

func limitTriggered(session *domain.ChargingSession, energyDeliveredKwh float64, cost decimal.Decimal, log *zap.Logger) (bool, string) {
	energy := decimal.NewFromFloat(energyDeliveredKwh)
	warnFrac := decimal.RequireFromString(limitWarnFraction)

	switch session.LimitType {
	case domain.LimitTypeEnergy:
		trigger := session.LimitValue.Mul(decimal.RequireFromString(energyLimitTriggerFraction))
		if energy.GreaterThanOrEqual(trigger) {
			return true, "EnergyLimitReached"
		}
	case domain.LimitTypeAmount:
		trigger := session.LimitValue.Mul(decimal.RequireFromString(amountLimitTriggerFraction))
		if cost.GreaterThanOrEqual(trigger) {
			return true, "AmountLimitReached"
		}
		if cost.GreaterThanOrEqual(session.LimitValue.Mul(warnFrac)) {
			log.Warn("charging: amount limit approaching", zap.String("session_id", session.ID))
		}
	case domain.LimitTypeNone:
		trigger := session.ReservedAmount.Mul(decimal.RequireFromString(noneLimitTriggerFraction))
		if cost.GreaterThanOrEqual(trigger) {
			return true, "AmountLimitReached"
		}
		if cost.GreaterThanOrEqual(session.ReservedAmount.Mul(warnFrac)) {
			log.Warn("charging: amount limit approaching", zap.String("session_id", session.ID))
		}
	}
	return false, ""
}

// OnBootNotificationReconcile implements the unconditional reconciliation
// rule (spec §4.1/§4.3): every pending/started session without a bound OCPP
// transaction on the booted station is forever unbindable, since the
// station forgot its state on reboot.
func (s *Service) OnBootNotificationReconcile(ctx context.Context, stationID string) error {
	sessions, err := s.sessions.FindNonTerminalByStation(ctx, stationID)
	if err != nil {
		return fmt.Errorf("charging: find non-terminal sessions: %w", err)
	}

	for i := range sessions {
		session := &sessions[i]
		if session.Status.Terminal() || session.OcppTransactionID != nil {
			continue
		}
		if err := s.reconcileOrphan(ctx, session); err != nil {
			s.log.Error("charging: failed to reconcile orphaned session", zap.Error(err), zap.String("session_id", session.ID))
		}
	}

	connectors, err := s.stations.FindConnectorsByStation(ctx, stationID)
	if err != nil {
		return fmt.Errorf("charging: find connectors: %w", err)
	}
	for i := range connectors {
		c := &connectors[i]
		if c.Status == domain.ConnectorStatusOccupied {
			c.Status = domain.ConnectorStatusAvailable
			c.LastStatusAt = time.Now().UTC()
			if err := s.stations.SaveConnector(ctx, c); err != nil {
				s.log.Error("charging: failed to release connector on reconcile", zap.Error(err))
			}
		}
	}
	return nil
}

func (s *Service) reconcileOrphan(ctx context.Context, session *domain.ChargingSession) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		client, err := s.clients.FindByID(ctx, session.ClientID)
		if err != nil {
			return err
		}
		if client == nil {
			return nil
		}
		balanceAfter, err := s.clients.UpdateBalanceTx(ctx, tx, session.ClientID, session.ReservedAmount)
		if err != nil {
			return err
		}
		if err := s.sessions.SavePaymentTransactionTx(ctx, tx, &domain.PaymentTransaction{
			ClientID:          session.ClientID,
			ChargingSessionID: &session.ID,
			Type:              domain.PaymentTxnChargeRefund,
			Amount:            session.ReservedAmount,
			BalanceBefore:     client.Balance,
			BalanceAfter:      balanceAfter,
			Description:       "station reboot",
			CreatedAt:         time.Now().UTC(),
		}); err != nil {
			return err
		}
		session.Status = domain.SessionStatusError
		return s.sessions.SaveTx(ctx, tx, session)
	})
}

// SweepHangingSessions runs the hourly background sweep (spec §4.3).
func (s *Service) SweepHangingSessions(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		maxAge = hangingSessionAge
	}
	stale, err := s.sessions.FindStartedOlderThan(ctx, maxAge)
	if err != nil {
		return 0, fmt.Errorf("charging: find stale sessions: %w", err)
	}

	stopped := 0
	for i := range stale {
		session := &stale[i]
		s.log.Warn("⚠️ hanging session", zap.String("session_id", session.ID), zap.Time("start_time", session.StartTime))
		if _, err := s.StopCharging(ctx, session.ID, session.ClientID); err != nil {
			s.log.Error("charging: failed to stop hanging session", zap.Error(err), zap.String("session_id", session.ID))
			continue
		}
		stopped++
	}
	return stopped, nil
}
