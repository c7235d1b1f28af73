package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestDatabase_ClientCRUD tests client (phone-identified wallet holder) rows.
func TestDatabase_ClientCRUD(t *testing.T) {
	env := SetupTestEnvironment(t)
	if env == nil || env.DB == nil {
		t.Skip("Database not available")
	}

	SetupSchema(t, env.DB)
	CleanDatabase(t, env.DB)

	ctx := context.Background()
	clientID := uuid.New().String()

	t.Run("CreateClient", func(t *testing.T) {
		_, err := env.DB.ExecContext(ctx, `
			INSERT INTO clients (id, phone, balance, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, clientID, "+996555000111", 0, "active", time.Now(), time.Now())

		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}
	})

	t.Run("ReadClient", func(t *testing.T) {
		var id, phone, status string
		err := env.DB.QueryRowContext(ctx, `
			SELECT id, phone, status FROM clients WHERE id = $1
		`, clientID).Scan(&id, &phone, &status)

		if err != nil {
			t.Fatalf("failed to read client: %v", err)
		}
		if phone != "+996555000111" {
			t.Errorf("expected phone '+996555000111', got '%s'", phone)
		}
	})

	t.Run("TopUpBalance", func(t *testing.T) {
		_, err := env.DB.ExecContext(ctx, `
			UPDATE clients SET balance = balance + $1, updated_at = $2 WHERE id = $3
		`, 500.0, time.Now(), clientID)
		if err != nil {
			t.Fatalf("failed to top up balance: %v", err)
		}

		var balance float64
		env.DB.QueryRowContext(ctx, `SELECT balance FROM clients WHERE id = $1`, clientID).Scan(&balance)
		if balance != 500.0 {
			t.Errorf("expected balance 500.0, got %f", balance)
		}
	})

	t.Run("DeleteClient", func(t *testing.T) {
		_, err := env.DB.ExecContext(ctx, `DELETE FROM clients WHERE id = $1`, clientID)
		if err != nil {
			t.Fatalf("failed to delete client: %v", err)
		}

		var count int
		env.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients WHERE id = $1`, clientID).Scan(&count)
		if count != 0 {
			t.Error("client should have been deleted")
		}
	})
}

// TestDatabase_StationCRUD tests station rows and the administrative-sweep
// fields (admin_status, last_heartbeat) spec §4.5 relies on.
func TestDatabase_StationCRUD(t *testing.T) {
	env := SetupTestEnvironment(t)
	if env == nil || env.DB == nil {
		t.Skip("Database not available")
	}

	SetupSchema(t, env.DB)
	CleanDatabase(t, env.DB)

	ctx := context.Background()
	stationID := "CP001"

	t.Run("CreateStation", func(t *testing.T) {
		_, err := env.DB.ExecContext(ctx, `
			INSERT INTO stations (id, serial, admin_status, price_per_kwh, is_available, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $6)
		`, stationID, "SN-001", "active", 12.5, true, time.Now())

		if err != nil {
			t.Fatalf("failed to create station: %v", err)
		}
	})

	t.Run("ReadStation", func(t *testing.T) {
		var id, adminStatus string
		var priceKwh float64
		err := env.DB.QueryRowContext(ctx, `
			SELECT id, admin_status, price_per_kwh FROM stations WHERE id = $1
		`, stationID).Scan(&id, &adminStatus, &priceKwh)

		if err != nil {
			t.Fatalf("failed to read station: %v", err)
		}
		if adminStatus != "active" {
			t.Errorf("expected admin_status 'active', got '%s'", adminStatus)
		}
	})

	t.Run("RecordHeartbeat", func(t *testing.T) {
		now := time.Now()
		_, err := env.DB.ExecContext(ctx, `
			UPDATE stations SET last_heartbeat = $1, is_available = true, updated_at = $1 WHERE id = $2
		`, now, stationID)
		if err != nil {
			t.Fatalf("failed to record heartbeat: %v", err)
		}

		var lastHeartbeat time.Time
		env.DB.QueryRowContext(ctx, `SELECT last_heartbeat FROM stations WHERE id = $1`, stationID).Scan(&lastHeartbeat)
		if lastHeartbeat.IsZero() {
			t.Error("expected last_heartbeat to be set")
		}
	})
}

// TestDatabase_ChargingSessionCRUD tests the charging_session lifecycle rows
// the core engine writes (spec §2/§4.3).
func TestDatabase_ChargingSessionCRUD(t *testing.T) {
	env := SetupTestEnvironment(t)
	if env == nil || env.DB == nil {
		t.Skip("Database not available")
	}

	SetupSchema(t, env.DB)
	CleanDatabase(t, env.DB)

	ctx := context.Background()
	clientID := uuid.New().String()
	stationID := "CP001"
	sessionID := uuid.New().String()

	env.DB.ExecContext(ctx, `
		INSERT INTO clients (id, phone, balance, status, created_at, updated_at)
		VALUES ($1, '+996555000111', 100, 'active', $2, $2)
	`, clientID, time.Now())

	env.DB.ExecContext(ctx, `
		INSERT INTO stations (id, serial, admin_status, price_per_kwh, is_available, created_at, updated_at)
		VALUES ($1, 'SN-001', 'active', 12.5, true, $2, $2)
	`, stationID, time.Now())

	t.Run("CreateSession", func(t *testing.T) {
		_, err := env.DB.ExecContext(ctx, `
			INSERT INTO charging_sessions (id, client_id, station_id, connector_id, status, start_time)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, sessionID, clientID, stationID, 1, "active", time.Now())

		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
	})

	t.Run("ReadActiveSession", func(t *testing.T) {
		var id, status string
		err := env.DB.QueryRowContext(ctx, `
			SELECT id, status FROM charging_sessions WHERE client_id = $1 AND status = 'active'
		`, clientID).Scan(&id, &status)

		if err != nil {
			t.Fatalf("failed to read active session: %v", err)
		}
		if id != sessionID {
			t.Errorf("expected session id '%s', got '%s'", sessionID, id)
		}
	})

	t.Run("StopSession", func(t *testing.T) {
		stopTime := time.Now()
		_, err := env.DB.ExecContext(ctx, `
			UPDATE charging_sessions SET status = 'completed', stop_time = $1, actual_energy_kwh = $2
			WHERE id = $3
		`, stopTime, 15.25, sessionID)

		if err != nil {
			t.Fatalf("failed to stop session: %v", err)
		}

		var status string
		var energy float64
		env.DB.QueryRowContext(ctx, `
			SELECT status, actual_energy_kwh FROM charging_sessions WHERE id = $1
		`, sessionID).Scan(&status, &energy)

		if status != "completed" {
			t.Errorf("expected status 'completed', got '%s'", status)
		}
		if energy != 15.25 {
			t.Errorf("expected actual_energy_kwh 15.25, got %f", energy)
		}
	})

	t.Run("SessionHistory", func(t *testing.T) {
		rows, err := env.DB.QueryContext(ctx, `
			SELECT id, status FROM charging_sessions WHERE client_id = $1 ORDER BY start_time DESC
		`, clientID)
		if err != nil {
			t.Fatalf("failed to read history: %v", err)
		}
		defer rows.Close()

		count := 0
		for rows.Next() {
			count++
		}
		if count == 0 {
			t.Error("expected at least one session in history")
		}
	})
}

// TestDatabase_WalletBalance tests the balance-as-a-column model on clients
// (spec §2: wallet balance lives on the client row, not a separate table).
func TestDatabase_WalletBalance(t *testing.T) {
	env := SetupTestEnvironment(t)
	if env == nil || env.DB == nil {
		t.Skip("Database not available")
	}

	SetupSchema(t, env.DB)
	CleanDatabase(t, env.DB)

	ctx := context.Background()
	clientID := uuid.New().String()

	env.DB.ExecContext(ctx, `
		INSERT INTO clients (id, phone, balance, status, created_at, updated_at)
		VALUES ($1, '+996555000111', 0, 'active', $2, $2)
	`, clientID, time.Now())

	t.Run("AddFunds", func(t *testing.T) {
		tx, err := env.DB.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("failed to begin transaction: %v", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE clients SET balance = balance + $1, updated_at = $2 WHERE id = $3
		`, 500.0, time.Now(), clientID)
		if err != nil {
			tx.Rollback()
			t.Fatalf("failed to add funds: %v", err)
		}

		paymentID := uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO payments (id, client_id, provider_id, status, amount, currency, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		`, paymentID, clientID, "pi_test", "succeeded", 500.0, "KGS", time.Now())
		if err != nil {
			tx.Rollback()
			t.Fatalf("failed to record payment: %v", err)
		}

		if err := tx.Commit(); err != nil {
			t.Fatalf("failed to commit: %v", err)
		}

		var balance float64
		env.DB.QueryRowContext(ctx, `SELECT balance FROM clients WHERE id = $1`, clientID).Scan(&balance)
		if balance != 500.0 {
			t.Errorf("expected balance 500.0, got %f", balance)
		}
	})

	t.Run("InsufficientBalanceGuard", func(t *testing.T) {
		result, err := env.DB.ExecContext(ctx, `
			UPDATE clients SET balance = balance - $1, updated_at = $2 WHERE id = $3 AND balance >= $1
		`, 100000.0, time.Now(), clientID)
		if err != nil {
			t.Fatalf("query failed: %v", err)
		}

		rowsAffected, _ := result.RowsAffected()
		if rowsAffected != 0 {
			t.Error("should not have deducted funds past the balance guard")
		}
	})
}

// TestDatabase_Transactions tests Postgres ACID behavior the core engine's
// GORM transaction (spec §2's reserve-on-start, settle-on-stop flow) relies
// on, independent of the domain model.
func TestDatabase_Transactions(t *testing.T) {
	env := SetupTestEnvironment(t)
	if env == nil || env.DB == nil {
		t.Skip("Database not available")
	}

	SetupSchema(t, env.DB)
	CleanDatabase(t, env.DB)

	ctx := context.Background()

	t.Run("Rollback", func(t *testing.T) {
		tx, err := env.DB.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("failed to begin transaction: %v", err)
		}

		clientID := uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO clients (id, phone, balance, status, created_at, updated_at)
			VALUES ($1, '+996555000222', 0, 'active', $2, $2)
		`, clientID, time.Now())
		if err != nil {
			t.Fatalf("failed to insert: %v", err)
		}

		if err := tx.Rollback(); err != nil {
			t.Fatalf("failed to rollback: %v", err)
		}

		var count int
		env.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients WHERE id = $1`, clientID).Scan(&count)
		if count != 0 {
			t.Error("client should not exist after rollback")
		}
	})

	t.Run("Commit", func(t *testing.T) {
		tx, err := env.DB.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("failed to begin transaction: %v", err)
		}

		clientID := uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO clients (id, phone, balance, status, created_at, updated_at)
			VALUES ($1, '+996555000333', 0, 'active', $2, $2)
		`, clientID, time.Now())
		if err != nil {
			tx.Rollback()
			t.Fatalf("failed to insert: %v", err)
		}

		if err := tx.Commit(); err != nil {
			t.Fatalf("failed to commit: %v", err)
		}

		var count int
		env.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM clients WHERE id = $1`, clientID).Scan(&count)
		if count != 1 {
			t.Error("client should exist after commit")
		}
	})
}
