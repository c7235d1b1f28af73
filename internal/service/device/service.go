package device

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/observability/telemetry"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

const (
	cacheKeyPrefix = "station:"
	cacheTTL       = 30 * time.Second
)

// Service is the read/admin-adjacent view over stations: a cache-aside
// wrapper over ports.StationRepository, publishing connector status changes
// on the bus so other subscribers (the mobile HTTP surface, admin tooling)
// see them without polling Postgres.
type Service struct {
	repo  ports.StationRepository
	cache ports.Cache
	bus   ports.Bus
	log   *zap.Logger
}

func NewService(repo ports.StationRepository, cache ports.Cache, bus ports.Bus, log *zap.Logger) ports.DeviceService {
	return &Service{repo: repo, cache: cache, bus: bus, log: log}
}

func (s *Service) GetStation(ctx context.Context, id string) (*domain.Station, error) {
	cacheKey := cacheKeyPrefix + id
	if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != "" {
		var station domain.Station
		if err := json.Unmarshal([]byte(cached), &station); err == nil {
			s.log.Debug("cache hit for station", zap.String("id", id))
			telemetry.RecordCacheAccess(true)
			return &station, nil
		}
	}
	telemetry.RecordCacheAccess(false)

	station, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if station != nil {
		if data, err := json.Marshal(station); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(data), cacheTTL); err != nil {
				s.log.Warn("failed to cache station", zap.String("id", id), zap.Error(err))
			}
		}
	}

	return station, nil
}

func (s *Service) ListStations(ctx context.Context, filter map[string]interface{}) ([]domain.Station, error) {
	stations, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	counts := map[string]float64{}
	for _, station := range stations {
		counts[string(station.AdminStatus)]++
	}
	for status, count := range counts {
		telemetry.DevicesTotal.WithLabelValues(status).Set(count)
	}

	return stations, nil
}

func (s *Service) UpdateConnectorStatus(ctx context.Context, stationID string, connectorID int, status domain.ConnectorStatus) error {
	connector, err := s.repo.FindConnector(ctx, stationID, connectorID)
	if err != nil {
		return err
	}
	if connector == nil {
		connector = &domain.Connector{StationID: stationID, ConnectorID: connectorID}
	}
	connector.Status = status
	connector.LastStatusAt = time.Now()

	if err := s.repo.SaveConnector(ctx, connector); err != nil {
		return err
	}

	cacheKey := cacheKeyPrefix + stationID
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		s.log.Warn("failed to invalidate station cache", zap.String("id", stationID), zap.Error(err))
	}

	event := map[string]interface{}{
		"station_id":   stationID,
		"connector_id": connectorID,
		"status":       status,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	}
	if data, err := json.Marshal(event); err == nil {
		if err := s.bus.Publish(ctx, "station_events:"+stationID, data); err != nil {
			s.log.Warn("failed to publish connector status event", zap.Error(err))
		}
	}

	return nil
}
