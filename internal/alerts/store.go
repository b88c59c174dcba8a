// Package alerts provides persistence for received trading signals.
package alerts

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	errs "github.com/BooraVinay/AlgoTradeEngine/internal/errors"
	"github.com/BooraVinay/AlgoTradeEngine/internal/models"
)

// Store persists alerts in SQLite. Alerts survive process restarts; the
// broker session deliberately does not.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the alert database at dbPath.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		ticker TEXT NOT NULL,
		exchange TEXT NOT NULL,
		interval TEXT,
		alert_time TEXT,
		action TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		symboltoken TEXT,
		status TEXT NOT NULL,
		order_id TEXT,
		unique_order_id TEXT,
		order_script TEXT,
		error_msg TEXT,
		received_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_alerts_received ON alerts(received_at DESC);
	CREATE INDEX IF NOT EXISTS idx_alerts_status ON alerts(status);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save inserts a new alert.
func (s *Store) Save(ctx context.Context, a *models.Alert) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO alerts (id, ticker, exchange, interval, alert_time, action,
			quantity, symboltoken, status, order_id, unique_order_id, order_script,
			error_msg, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Ticker, string(a.Exchange), a.Interval, a.Time, string(a.Action),
		a.Quantity, a.SymbolToken, string(a.Status),
		orderField(a, func(r *models.OrderResult) string { return r.OrderID }),
		orderField(a, func(r *models.OrderResult) string { return r.UniqueOrderID }),
		orderField(a, func(r *models.OrderResult) string { return r.Script }),
		a.ErrorMsg, a.ReceivedAt)
	if err != nil {
		return fmt.Errorf("saving alert %s: %w", a.ID, err)
	}
	return nil
}

// Update rewrites the mutable fields of an existing alert (status, order
// result, error message).
func (s *Store) Update(ctx context.Context, a *models.Alert) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE alerts
		SET status = ?, order_id = ?, unique_order_id = ?, order_script = ?, error_msg = ?
		WHERE id = ?`,
		string(a.Status),
		orderField(a, func(r *models.OrderResult) string { return r.OrderID }),
		orderField(a, func(r *models.OrderResult) string { return r.UniqueOrderID }),
		orderField(a, func(r *models.OrderResult) string { return r.Script }),
		a.ErrorMsg, a.ID)
	if err != nil {
		return fmt.Errorf("updating alert %s: %w", a.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrAlertNotFound
	}
	return nil
}

// FindByID returns the alert with the given id, or ErrAlertNotFound.
func (s *Store) FindByID(ctx context.Context, id string) (*models.Alert, error) {
	row := s.db.QueryRowContext(ctx, selectAlert+` WHERE id = ?`, id)
	a, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, errs.ErrAlertNotFound
	}
	return a, err
}

// List returns alerts newest first. When status is non-empty, only alerts
// in that state are returned. A limit of 0 means no limit.
func (s *Store) List(ctx context.Context, status models.AlertStatus, limit int) ([]models.Alert, error) {
	query := selectAlert
	var args []interface{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY received_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *a)
	}
	return alerts, rows.Err()
}

const stopAlertsKey = "stop_alerts"

// SetStopped persists the alert-intake toggle.
func (s *Store) SetStopped(ctx context.Context, stopped bool) error {
	value := "0"
	if stopped {
		value = "1"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		stopAlertsKey, value)
	return err
}

// Stopped reports whether alert intake is currently stopped.
func (s *Store) Stopped(ctx context.Context) (bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, stopAlertsKey).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return value == "1", nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

const selectAlert = `
	SELECT id, ticker, exchange, interval, alert_time, action, quantity,
		symboltoken, status, order_id, unique_order_id, order_script,
		error_msg, received_at
	FROM alerts`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAlert(row rowScanner) (*models.Alert, error) {
	var a models.Alert
	var exchange, action, status string
	var interval, alertTime, symbolToken, orderID, uniqueOrderID, script, errorMsg sql.NullString
	if err := row.Scan(&a.ID, &a.Ticker, &exchange, &interval, &alertTime, &action,
		&a.Quantity, &symbolToken, &status, &orderID, &uniqueOrderID, &script,
		&errorMsg, &a.ReceivedAt); err != nil {
		return nil, err
	}
	a.Exchange = models.Exchange(exchange)
	a.Action = models.TransactionType(action)
	a.Status = models.AlertStatus(status)
	a.Interval = interval.String
	a.Time = alertTime.String
	a.SymbolToken = symbolToken.String
	a.ErrorMsg = errorMsg.String
	if orderID.String != "" || uniqueOrderID.String != "" {
		a.OrderResult = &models.OrderResult{
			OrderID:       orderID.String,
			UniqueOrderID: uniqueOrderID.String,
			Script:        script.String,
		}
	}
	return &a, nil
}

func orderField(a *models.Alert, get func(*models.OrderResult) string) string {
	if a.OrderResult == nil {
		return ""
	}
	return get(a.OrderResult)
}
