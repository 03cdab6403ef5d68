package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/spf13/viper"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	RetainSnapshots int
}

// GetConfig returns database configuration with defaults
func GetConfig(v *viper.Viper) *DBConfig {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.name", "ruralpay_ledger")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Minute*5)
	v.SetDefault("database.retain_snapshots", 100)

	return &DBConfig{
		Host:            v.GetString("database.host"),
		Port:            v.GetString("database.port"),
		User:            v.GetString("database.user"),
		Password:        v.GetString("database.password"),
		Name:            v.GetString("database.name"),
		SSLMode:         v.GetString("database.ssl_mode"),
		MaxOpenConns:    v.GetInt("database.max_open_conns"),
		MaxIdleConns:    v.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: v.GetDuration("database.conn_max_lifetime"),
		RetainSnapshots: v.GetInt("database.retain_snapshots"),
	}
}

// InitDB opens and verifies the database connection
func InitDB(ctx context.Context, config *DBConfig) (*sql.DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.Name, config.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test connection
	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	log.Println("Database connection established")
	return db, nil
}

const (
	createSnapshotsTable = `CREATE TABLE IF NOT EXISTS ledger_snapshots (
	id BIGSERIAL PRIMARY KEY,
	taken_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	data JSONB NOT NULL
)`
	insertSnapshot       = `INSERT INTO ledger_snapshots (data) VALUES ($1) RETURNING id`
	pruneSnapshots       = `DELETE FROM ledger_snapshots WHERE id <= $1`
	selectLatestSnapshot = `SELECT data FROM ledger_snapshots ORDER BY id DESC LIMIT 1`
)

// PostgresSnapshotStore appends every ledger snapshot as a JSONB row and
// loads the newest one. Older rows beyond the retention count are pruned.
type PostgresSnapshotStore struct {
	db     *sql.DB
	retain int
}

func NewPostgresSnapshotStore(db *sql.DB, retain int) *PostgresSnapshotStore {
	return &PostgresSnapshotStore{db: db, retain: retain}
}

// Migrate creates the snapshot table if it does not exist.
func (s *PostgresSnapshotStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createSnapshotsTable); err != nil {
		return fmt.Errorf("create ledger_snapshots: %w", err)
	}
	return nil
}

func (s *PostgresSnapshotStore) Load(ctx context.Context) (*models.Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, selectLatestSnapshot).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return models.NewSnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	snap := models.NewSnapshot()
	if err := json.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	snap.Normalize()
	return snap, nil
}

func (s *PostgresSnapshotStore) Save(ctx context.Context, snap *models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	var id int64
	if err := tx.QueryRowContext(ctx, insertSnapshot, data).Scan(&id); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if s.retain > 0 && id > int64(s.retain) {
		if _, err := tx.ExecContext(ctx, pruneSnapshots, id-int64(s.retain)); err != nil {
			return fmt.Errorf("prune snapshots: %w", err)
		}
	}
	return tx.Commit()
}
