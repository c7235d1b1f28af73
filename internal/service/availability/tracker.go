// Package availability implements the presence, per-connector and
// location-aggregate tracking described in spec §4.5, grounded on the
// source's StationStatusManager (station_status_manager.py) for the
// heartbeat-staleness sweep and on the teacher's device service for the
// cache-aside read pattern.
package availability

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

// HeartbeatTimeout mirrors StationStatusManager.HEARTBEAT_TIMEOUT_MINUTES:
// a station with no heartbeat inside this window is administratively
// unavailable, regardless of the bus's separate 300s presence TTL.
const HeartbeatTimeout = 5 * time.Minute

const locationStatusCacheTTL = 30 * time.Second

func locationCacheKey(locationID string) string {
	return "location:status:" + locationID
}

// Tracker implements ports.AvailabilityTracker.
type Tracker struct {
	bus      ports.Bus
	stations ports.StationRepository
	sessions ports.ChargingSessionRepository
	commands ports.OCPPCommandService
	email    ports.EmailService
	log      *zap.Logger
}

func NewTracker(
	bus ports.Bus,
	stations ports.StationRepository,
	sessions ports.ChargingSessionRepository,
	commands ports.OCPPCommandService,
	email ports.EmailService,
	log *zap.Logger,
) *Tracker {
	return &Tracker{bus: bus, stations: stations, sessions: sessions, commands: commands, email: email, log: log}
}

// RefreshHeartbeat marks the station online in the bus's 300s TTL index and
// persists the heartbeat time the administrative sweep reads back.
func (t *Tracker) RefreshHeartbeat(ctx context.Context, stationID string) error {
	if err := t.bus.MarkOnline(ctx, stationID); err != nil {
		return fmt.Errorf("availability: mark online: %w", err)
	}
	if err := t.stations.UpdateHeartbeat(ctx, stationID, time.Now().UTC()); err != nil {
		return fmt.Errorf("availability: persist heartbeat: %w", err)
	}
	return nil
}

func (t *Tracker) IsStationOnline(ctx context.Context, stationID string) (bool, error) {
	return t.bus.IsOnline(ctx, stationID)
}

// UpdateConnectorStatus persists the StatusNotification result, invalidates
// the cached location aggregate, publishes the update event and, on a
// non-NoError errorCode, asynchronously requests diagnostics and notifies
// the client bound to the connector (spec §4.5, best-effort).
func (t *Tracker) UpdateConnectorStatus(ctx context.Context, stationID string, connectorID int, status domain.ConnectorStatus, errorCode string) error {
	connector, err := t.stations.FindConnector(ctx, stationID, connectorID)
	if err != nil {
		return fmt.Errorf("availability: find connector: %w", err)
	}
	if connector == nil {
		return fmt.Errorf("availability: connector %s/%d not found", stationID, connectorID)
	}
	connector.Status = status
	connector.LastErrorCode = errorCode
	connector.LastStatusAt = time.Now().UTC()
	if err := t.stations.SaveConnector(ctx, connector); err != nil {
		return fmt.Errorf("availability: save connector: %w", err)
	}

	station, err := t.stations.FindByID(ctx, stationID)
	if err == nil && station != nil {
		if err := t.bus.Del(ctx, locationCacheKey(station.LocationID)); err != nil {
			t.log.Warn("availability: failed to invalidate location cache", zap.Error(err))
		}
	}

	if payload, err := json.Marshal(map[string]interface{}{
		"station_id":   stationID,
		"connector_id": connectorID,
		"status":       status,
		"error_code":   errorCode,
	}); err == nil {
		topic := fmt.Sprintf("connector_updates:%s:%d", stationID, connectorID)
		if err := t.bus.Publish(ctx, topic, payload); err != nil {
			t.log.Warn("availability: failed to publish connector update", zap.Error(err))
		}
	}

	if errorCode != "" && errorCode != "NoError" {
		t.handleErrorDiagnostics(ctx, stationID, connectorID, errorCode)
	}

	return nil
}

func (t *Tracker) handleErrorDiagnostics(ctx context.Context, stationID string, connectorID int, errorCode string) {
	go func() {
		diagCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := t.commands.GetConfiguration(diagCtx, stationID, nil); err != nil {
			t.log.Warn("availability: GetConfiguration failed", zap.String("station_id", stationID), zap.Error(err))
		}
		if err := t.commands.GetDiagnostics(diagCtx, stationID, ""); err != nil {
			t.log.Warn("availability: GetDiagnostics failed", zap.String("station_id", stationID), zap.Error(err))
		}

		session, err := t.sessions.FindActiveByConnector(diagCtx, stationID, connectorID)
		if err != nil || session == nil {
			return
		}
		client := &domain.Client{ID: session.ClientID}
		if err := t.email.SendChargingError(diagCtx, client, stationID, connectorID, errorCode); err != nil {
			t.log.Warn("availability: failed to notify client of charging error", zap.Error(err))
		}
	}()
}

// LocationStatus derives the spec §4.5 aggregate view, cached 30s.
func (t *Tracker) LocationStatus(ctx context.Context, locationID string) (ports.LocationAggregateStatus, error) {
	cacheKey := locationCacheKey(locationID)
	if cached, ok, err := t.bus.Get(ctx, cacheKey); err == nil && ok {
		return ports.LocationAggregateStatus(cached), nil
	}

	stations, err := t.stations.FindByLocation(ctx, locationID)
	if err != nil {
		return "", fmt.Errorf("availability: find stations by location: %w", err)
	}

	status := deriveLocationStatus(stations)
	if err := t.bus.Set(ctx, cacheKey, string(status), locationStatusCacheTTL); err != nil {
		t.log.Warn("availability: failed to cache location status", zap.Error(err))
	}
	return status, nil
}

func deriveLocationStatus(stations []domain.Station) ports.LocationAggregateStatus {
	if len(stations) == 0 {
		return ports.LocationStatusOffline
	}

	anyOffline, anyMaintenance := false, false
	totalConnectors, occupiedConnectors, availableConnectors := 0, 0, 0

	for _, station := range stations {
		if !station.IsAvailable {
			anyOffline = true
		}
		if station.AdminStatus == domain.StationAdminStatusMaintenance {
			anyMaintenance = true
		}
		for _, c := range station.Connectors {
			totalConnectors++
			switch c.Status {
			case domain.ConnectorStatusOccupied:
				occupiedConnectors++
			case domain.ConnectorStatusAvailable:
				availableConnectors++
			}
		}
	}

	switch {
	case anyOffline:
		return ports.LocationStatusOffline
	case anyMaintenance:
		return ports.LocationStatusMaintenance
	case totalConnectors > 0 && occupiedConnectors == totalConnectors:
		return ports.LocationStatusOccupied
	case totalConnectors > 0 && availableConnectors == totalConnectors:
		return ports.LocationStatusAvailable
	default:
		return ports.LocationStatusPartial
	}
}

// RunAdministrativeSweep implements the once-per-minute staleness flip (spec
// §4.5): stations with no heartbeat inside HeartbeatTimeout lose
// is_available; stations with a recent heartbeat regain it. A station with
// no heartbeat record at all is treated as unavailable.
func (t *Tracker) RunAdministrativeSweep(ctx context.Context) error {
	stations, err := t.stations.FindAll(ctx, nil)
	if err != nil {
		return fmt.Errorf("availability: find all stations: %w", err)
	}

	cutoff := time.Now().UTC().Add(-HeartbeatTimeout)
	for i := range stations {
		station := &stations[i]
		stale := station.LastHeartbeat == nil || station.LastHeartbeat.Before(cutoff)

		switch {
		case stale && station.IsAvailable:
			if err := t.stations.UpdateAvailability(ctx, station.ID, false); err != nil {
				t.log.Error("availability: failed to mark station unavailable", zap.Error(err), zap.String("station_id", station.ID))
				continue
			}
			t.log.Warn("🔴 station deactivated (no heartbeat)", zap.String("station_id", station.ID))
			t.notifyOwnerOffline(ctx, station)
		case !stale && !station.IsAvailable:
			if err := t.stations.UpdateAvailability(ctx, station.ID, true); err != nil {
				t.log.Error("availability: failed to mark station available", zap.Error(err), zap.String("station_id", station.ID))
				continue
			}
			t.log.Info("🟢 station reactivated", zap.String("station_id", station.ID))
		}
	}
	return nil
}

func (t *Tracker) notifyOwnerOffline(ctx context.Context, station *domain.Station) {
	if station.OwnerEmail == "" {
		return
	}
	lastHeartbeat := time.Time{}
	if station.LastHeartbeat != nil {
		lastHeartbeat = *station.LastHeartbeat
	}
	if err := t.email.SendStationOffline(ctx, station.OwnerEmail, station.ID, lastHeartbeat); err != nil {
		t.log.Warn("availability: failed to send station offline notification", zap.Error(err), zap.String("station_id", station.ID))
	}
}
