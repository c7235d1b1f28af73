package device

import (
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/mocks"
)

func TestService_GetStation_CacheMiss(t *testing.T) {
	findCalls := 0
	repo := &mocks.MockStationRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Station, error) {
			findCalls++
			return &domain.Station{ID: id, Serial: "SN-1"}, nil
		},
	}
	cache := &mocks.MockCache{}
	bus := &mocks.MockBus{}

	svc := NewService(repo, cache, bus, zap.NewNop())
	station, err := svc.GetStation(context.Background(), "CP001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if station == nil || station.ID != "CP001" {
		t.Fatalf("expected station CP001, got %+v", station)
	}
	if findCalls != 1 {
		t.Errorf("expected repo lookup once, got %d", findCalls)
	}
}

func TestService_GetStation_CacheHit(t *testing.T) {
	findCalls := 0
	repo := &mocks.MockStationRepository{
		FindByIDFunc: func(ctx context.Context, id string) (*domain.Station, error) {
			findCalls++
			return &domain.Station{ID: id}, nil
		},
	}
	cached, _ := json.Marshal(domain.Station{ID: "CP002", Serial: "SN-cached"})
	cache := &mocks.MockCache{
		GetFunc: func(ctx context.Context, key string) (string, error) {
			if key == cacheKeyPrefix+"CP002" {
				return string(cached), nil
			}
			return "", nil
		},
	}
	bus := &mocks.MockBus{}

	svc := NewService(repo, cache, bus, zap.NewNop())
	station, err := svc.GetStation(context.Background(), "CP002")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if station.Serial != "SN-cached" {
		t.Errorf("expected cached station to be returned, got %+v", station)
	}
	if findCalls != 0 {
		t.Errorf("expected repo not to be queried on cache hit, got %d calls", findCalls)
	}
}

func TestService_UpdateConnectorStatus_InvalidatesCacheAndPublishes(t *testing.T) {
	var savedConnector *domain.Connector
	repo := &mocks.MockStationRepository{
		FindConnectorFunc: func(ctx context.Context, stationID string, connectorID int) (*domain.Connector, error) {
			return nil, nil
		},
		SaveConnectorFunc: func(ctx context.Context, connector *domain.Connector) error {
			savedConnector = connector
			return nil
		},
	}

	deletedKey := ""
	cache := &mocks.MockCache{
		DeleteFunc: func(ctx context.Context, key string) error {
			deletedKey = key
			return nil
		},
	}

	published := false
	var publishedTopic string
	bus := &mocks.MockBus{
		PublishFunc: func(ctx context.Context, topic string, payload []byte) error {
			published = true
			publishedTopic = topic
			return nil
		},
	}

	svc := NewService(repo, cache, bus, zap.NewNop())
	err := svc.UpdateConnectorStatus(context.Background(), "CP003", 1, domain.ConnectorStatusOccupied)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if savedConnector == nil || savedConnector.Status != domain.ConnectorStatusOccupied {
		t.Fatalf("expected connector to be saved with Occupied status, got %+v", savedConnector)
	}
	if deletedKey != cacheKeyPrefix+"CP003" {
		t.Errorf("expected station cache to be invalidated, got key %q", deletedKey)
	}
	if !published {
		t.Error("expected a connector status event to be published")
	}
	if publishedTopic != "station_events:CP003" {
		t.Errorf("expected topic 'station_events:CP003', got %q", publishedTopic)
	}
}

func TestService_ListStations(t *testing.T) {
	want := []domain.Station{{ID: "CP001"}, {ID: "CP002"}}
	repo := &mocks.MockStationRepository{
		FindAllFunc: func(ctx context.Context, filter map[string]interface{}) ([]domain.Station, error) {
			return want, nil
		},
	}
	svc := NewService(repo, &mocks.MockCache{}, &mocks.MockBus{}, zap.NewNop())

	got, err := svc.ListStations(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 stations, got %d", len(got))
	}
}
