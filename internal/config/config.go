package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type DeviceConfig struct {
	URN  string `mapstructure:"urn"`
	Path string `mapstructure:"path"`
}

type StageConfig struct {
	Backend        string   `mapstructure:"backend"`
	WHIPURL        string   `mapstructure:"whip_url"`
	ICEServers     []string `mapstructure:"ice_servers"`
	SubscribeSlots int      `mapstructure:"subscribe_slots"`
	LocalID        string   `mapstructure:"local_id"`
}

type DevicesConfig struct {
	Cameras    []DeviceConfig `mapstructure:"cameras"`
	Microphone DeviceConfig   `mapstructure:"microphone"`
}

type RetryConfig struct {
	Attempts int           `mapstructure:"attempts"`
	Delay    time.Duration `mapstructure:"delay"`
}

type AssignmentConfig struct {
	Policy string `mapstructure:"policy"`
}

type PiPConfig struct {
	FPS int `mapstructure:"fps"`
}

type PermissionsConfig struct {
	Camera     bool          `mapstructure:"camera"`
	Microphone bool          `mapstructure:"microphone"`
	TTL        time.Duration `mapstructure:"ttl"`
}

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	LogLevel   string        `mapstructure:"log_level"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	Stage       StageConfig       `mapstructure:"stage"`
	Devices     DevicesConfig     `mapstructure:"devices"`
	Retry       RetryConfig       `mapstructure:"retry"`
	Assignment  AssignmentConfig  `mapstructure:"assignment"`
	PiP         PiPConfig         `mapstructure:"pip"`
	Permissions PermissionsConfig `mapstructure:"permissions"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "stagebridge-dev-secret")

	v.SetDefault("stage.backend", "memory")
	v.SetDefault("stage.whip_url", "")
	v.SetDefault("stage.ice_servers", []string{"stun:stun.l.google.com:19302"})
	v.SetDefault("stage.subscribe_slots", 4)
	v.SetDefault("stage.local_id", "local")

	v.SetDefault("devices.cameras", []map[string]any{
		{"urn": "camera-front"},
		{"urn": "camera-back"},
	})
	v.SetDefault("devices.microphone", map[string]any{"urn": "microphone"})

	v.SetDefault("retry.attempts", 3)
	v.SetDefault("retry.delay", "500ms")
	v.SetDefault("assignment.policy", "sort_to_front")
	v.SetDefault("pip.fps", 5)
	v.SetDefault("permissions.camera", true)
	v.SetDefault("permissions.microphone", true)
	v.SetDefault("permissions.ttl", "5m")
}

func Load() (*Config, error) {
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFile(fmt.Sprintf("config/config.%s.yaml", env))
}

// LoadFile reads fileName over the defaults. A missing file is not an
// error; STAGEBRIDGE_* environment variables override both.
func LoadFile(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("stagebridge")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Backend: %s\n", cfg.Mode, cfg.Port, cfg.Stage.Backend)
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Stage.Backend {
	case "memory":
	case "webrtc":
		if c.Stage.WHIPURL == "" {
			return fmt.Errorf("stage.whip_url is required for the webrtc backend")
		}
	default:
		return fmt.Errorf("unknown stage.backend %q", c.Stage.Backend)
	}
	switch c.Assignment.Policy {
	case "sort_to_front", "filter_first":
	default:
		return fmt.Errorf("unknown assignment.policy %q", c.Assignment.Policy)
	}
	if c.Retry.Attempts < 0 {
		return fmt.Errorf("retry.attempts must not be negative")
	}
	return nil
}
