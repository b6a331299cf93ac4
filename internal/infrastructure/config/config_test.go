package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeConfig writes a temporary config file and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	// A minimal file exercises the default layer.
	path := writeConfig(t, "serial:\n  port: /dev/ttyUSB1\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Serial.Port != "/dev/ttyUSB1" {
		t.Errorf("serial.port = %q", cfg.Serial.Port)
	}
	if cfg.Serial.BaudRate != 9600 {
		t.Errorf("serial.baud_rate = %d, want default 9600", cfg.Serial.BaudRate)
	}
	if cfg.Engine.TimeUnit != time.Second {
		t.Errorf("engine.time_unit = %v, want default 1s", cfg.Engine.TimeUnit)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("api.port = %d, want default 8080", cfg.API.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("logging.level = %q, want default info", cfg.Logging.Level)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
serial:
  port: COM3
  baud_rate: 19200
engine:
  time_unit: 250ms
api:
  port: 9090
logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Serial.Port != "COM3" || cfg.Serial.BaudRate != 19200 {
		t.Errorf("serial = %+v", cfg.Serial)
	}
	if cfg.Engine.TimeUnit != 250*time.Millisecond {
		t.Errorf("engine.time_unit = %v, want 250ms", cfg.Engine.TimeUnit)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("api.port = %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %+v", cfg.Logging)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "serial:\n  port: /dev/ttyUSB0\n")

	t.Setenv("RELAYSEQ_SERIAL_PORT", "/dev/tty.usbserial")
	t.Setenv("RELAYSEQ_API_PORT", "8181")
	t.Setenv("RELAYSEQ_SERIAL_DRY_RUN", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Serial.Port != "/dev/tty.usbserial" {
		t.Errorf("serial.port = %q, want env override", cfg.Serial.Port)
	}
	if cfg.API.Port != 8181 {
		t.Errorf("api.port = %d, want 8181", cfg.API.Port)
	}
	if !cfg.Serial.DryRun {
		t.Error("serial.dry_run should be true from env")
	}
}

func TestAPIConfig_TimeoutDurations(t *testing.T) {
	cfg := APIConfig{Timeouts: APITimeoutConfig{Read: 15, Write: 20, Idle: 60}}

	if got := cfg.GetReadTimeout(); got != 15*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 15s", got)
	}
	if got := cfg.GetWriteTimeout(); got != 20*time.Second {
		t.Errorf("GetWriteTimeout() = %v, want 20s", got)
	}
	if got := cfg.GetIdleTimeout(); got != 60*time.Second {
		t.Errorf("GetIdleTimeout() = %v, want 60s", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name: "missing serial port",
			mutate: func(c *Config) {
				c.Serial.Port = ""
			},
			wantErr: "serial.port",
		},
		{
			name: "dry run allows missing port",
			mutate: func(c *Config) {
				c.Serial.Port = ""
				c.Serial.DryRun = true
			},
		},
		{
			name: "zero time unit",
			mutate: func(c *Config) {
				c.Engine.TimeUnit = 0
			},
			wantErr: "engine.time_unit",
		},
		{
			name: "bad api port",
			mutate: func(c *Config) {
				c.API.Port = 0
			},
			wantErr: "api.port",
		},
		{
			name: "mqtt enabled without host",
			mutate: func(c *Config) {
				c.MQTT.Enabled = true
				c.MQTT.Broker.Host = ""
			},
			wantErr: "mqtt.broker.host",
		},
		{
			name: "influx enabled without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.Bucket = "runs"
			},
			wantErr: "influxdb.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
