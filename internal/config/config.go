// Package config defines the TOML schemas for the ingestor's five CLI
// modes and loads them with BurntSushi/toml.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// ArchiveConfig backs `--mode=block_parser`.
type ArchiveConfig struct {
	DataDir                     string `toml:"data_dir"`
	ProcessedDir                string `toml:"processed_dir"`
	ScanIntervalSeconds         int    `toml:"scan_interval_seconds"`
	EnableWatch                 bool   `toml:"enable_watch"`
	MaxConcurrentClickhouseTasks int   `toml:"max_concurrent_clickhouse_tasks"`
}

// ScanInterval returns ScanIntervalSeconds as a Duration, defaulting to
// 600s when unset.
func (c ArchiveConfig) ScanInterval() time.Duration {
	if c.ScanIntervalSeconds <= 0 {
		return 600 * time.Second
	}
	return time.Duration(c.ScanIntervalSeconds) * time.Second
}

// PoolSize returns MaxConcurrentClickhouseTasks, defaulting to 3.
func (c ArchiveConfig) PoolSize() int64 {
	if c.MaxConcurrentClickhouseTasks <= 0 {
		return 3
	}
	return int64(c.MaxConcurrentClickhouseTasks)
}

func loadArchiveDefaults(c *ArchiveConfig) {
	if c.ScanIntervalSeconds == 0 {
		c.ScanIntervalSeconds = 600
	}
	if c.MaxConcurrentClickhouseTasks == 0 {
		c.MaxConcurrentClickhouseTasks = 3
	}
}

// SubscriberConfig backs `--mode=transaction_subscriber`.
type SubscriberConfig struct {
	NatsURL                      string            `toml:"nats_url"`
	Topic                        string            `toml:"topic"`
	MaxConcurrentClickhouseTasks int               `toml:"max_concurrent_clickhouse_tasks"`
	Tables                       map[string]string `toml:"tables"`
	Telepath                     *TelepathConfig   `toml:"telepath"`
}

// TelepathConfig configures the optional live egress signal publisher.
type TelepathConfig struct {
	Enabled        bool   `toml:"enabled"`
	Name           string `toml:"name"`
	SenderAgent    string `toml:"sender_agent"`
	AuthorityLevel int    `toml:"authority_level"`
	TTLSeconds     int    `toml:"ttl_seconds"`
	MaxMsgs        int64  `toml:"max_msgs"`
	MaxBytes       int64  `toml:"max_bytes"`
	MemoryBacked   bool   `toml:"memory_backed"`
	DiscardOld     bool   `toml:"discard_old"`
	SingleReplica  bool   `toml:"single_replica"`
}

// TTL returns TTLSeconds as a time.Duration.
func (c TelepathConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// PoolSize returns MaxConcurrentClickhouseTasks, defaulting to 10.
func (c SubscriberConfig) PoolSize() int64 {
	if c.MaxConcurrentClickhouseTasks <= 0 {
		return 10
	}
	return int64(c.MaxConcurrentClickhouseTasks)
}

// ExportConfig backs `--mode=local` (Parquet export + transfer).
type ExportConfig struct {
	Tables              []string          `toml:"tables"`
	TableEventMappings  map[string]string `toml:"table_event_mappings"`
	StartTime           string            `toml:"start_time"` // YYYY-MM-DD
	LocalStoragePath    string            `toml:"local_storage_path"`
	RemoteServer        RemoteServerConfig `toml:"remote_server"`
}

// RemoteServerConfig names the rsync transfer destination.
type RemoteServerConfig struct {
	Address        string `toml:"address"`
	Port           int    `toml:"port"`
	Username       string `toml:"username"`
	PrivateKeyPath string `toml:"private_key_path"`
	RemotePath     string `toml:"remote_path"`
}

// StartDate parses StartTime, defaulting to today (UTC) if unset.
func (c ExportConfig) StartDate() (time.Time, error) {
	if c.StartTime == "" {
		return time.Now().UTC().Truncate(24 * time.Hour), nil
	}
	return time.Parse("2006-01-02", c.StartTime)
}

// ImportConfig backs `--mode=remote` (Parquet import).
type ImportConfig struct {
	RemoteStoragePath  string            `toml:"remote_storage_path"`
	ImportMappings     map[string]string `toml:"import_mappings"`
	TableEventMappings map[string]string `toml:"table_event_mappings"`
}

// SyncConfig backs `--mode=sync-check` (reconciliation).
type SyncConfig struct {
	LocalURL       string            `toml:"local_url"`
	LocalDatabase  string            `toml:"local_database"`
	LocalUser      string            `toml:"local_user"`
	LocalPassword  string            `toml:"local_password"`
	RemoteURL      string            `toml:"remote_url"`
	RemoteDatabase string            `toml:"remote_database"`
	RemoteUser     string            `toml:"remote_user"`
	RemotePassword string            `toml:"remote_password"`
	TableMappings  map[string]string `toml:"table_mappings"`
	CheckDays      int               `toml:"check_days"`
	LagHours       int               `toml:"lag_hours"`
}

func loadSyncDefaults(c *SyncConfig) {
	if c.CheckDays == 0 {
		c.CheckDays = 7
	}
	if c.LagHours == 0 {
		c.LagHours = 2
	}
}

// LoadArchive reads an ArchiveConfig from path.
func LoadArchive(path string) (ArchiveConfig, error) {
	var c ArchiveConfig
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return c, fmt.Errorf("config: decode %s: %w", path, err)
	}
	loadArchiveDefaults(&c)
	return c, nil
}

// LoadSubscriber reads a SubscriberConfig from path.
func LoadSubscriber(path string) (SubscriberConfig, error) {
	var c SubscriberConfig
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return c, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return c, nil
}

// LoadExport reads an ExportConfig from path.
func LoadExport(path string) (ExportConfig, error) {
	var c ExportConfig
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return c, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return c, nil
}

// LoadImport reads an ImportConfig from path.
func LoadImport(path string) (ImportConfig, error) {
	var c ImportConfig
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return c, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return c, nil
}

// LoadSync reads a SyncConfig from path.
func LoadSync(path string) (SyncConfig, error) {
	var c SyncConfig
	if _, err := toml.DecodeFile(path, &c); err != nil {
		return c, fmt.Errorf("config: decode %s: %w", path, err)
	}
	loadSyncDefaults(&c)
	return c, nil
}
