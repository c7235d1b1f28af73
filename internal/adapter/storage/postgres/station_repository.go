package postgres

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/sigec-ve/internal/domain"
	"github.com/seu-repo/sigec-ve/internal/ports"
)

type StationRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewStationRepository(db *gorm.DB, log *zap.Logger) ports.StationRepository {
	return &StationRepository{db: db, log: log}
}

func (r *StationRepository) Save(ctx context.Context, station *domain.Station) error {
	if err := r.db.WithContext(ctx).Save(station).Error; err != nil {
		r.log.Error("failed to save station", zap.Error(err))
		return err
	}
	return nil
}

func (r *StationRepository) FindByID(ctx context.Context, id string) (*domain.Station, error) {
	var station domain.Station
	err := r.db.WithContext(ctx).Preload("Connectors").Preload("Location").First(&station, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &station, nil
}

func (r *StationRepository) FindAll(ctx context.Context, filter map[string]interface{}) ([]domain.Station, error) {
	var stations []domain.Station
	query := r.db.WithContext(ctx).Preload("Connectors").Preload("Location")
	if status, ok := filter["admin_status"]; ok {
		query = query.Where("admin_status = ?", status)
	}
	if locationID, ok := filter["location_id"]; ok {
		query = query.Where("location_id = ?", locationID)
	}
	err := query.Find(&stations).Error
	return stations, err
}

func (r *StationRepository) UpdateAdminStatus(ctx context.Context, id string, status domain.StationAdminStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Station{}).Where("id = ?", id).Update("admin_status", status).Error
}

func (r *StationRepository) UpdateHeartbeat(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Station{}).Where("id = ?", id).Update("last_heartbeat", at).Error
}

func (r *StationRepository) UpdateAvailability(ctx context.Context, id string, available bool) error {
	return r.db.WithContext(ctx).Model(&domain.Station{}).Where("id = ?", id).Update("is_available", available).Error
}

func (r *StationRepository) FindByLocation(ctx context.Context, locationID string) ([]domain.Station, error) {
	var stations []domain.Station
	err := r.db.WithContext(ctx).Preload("Connectors").Where("location_id = ?", locationID).Find(&stations).Error
	return stations, err
}

func (r *StationRepository) FindConnector(ctx context.Context, stationID string, connectorID int) (*domain.Connector, error) {
	var connector domain.Connector
	err := r.db.WithContext(ctx).First(&connector, "station_id = ? AND connector_id = ?", stationID, connectorID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &connector, nil
}

func (r *StationRepository) SaveConnector(ctx context.Context, connector *domain.Connector) error {
	return r.db.WithContext(ctx).Save(connector).Error
}

func (r *StationRepository) FindConnectorsByStation(ctx context.Context, stationID string) ([]domain.Connector, error) {
	var connectors []domain.Connector
	err := r.db.WithContext(ctx).Where("station_id = ?", stationID).Find(&connectors).Error
	return connectors, err
}
