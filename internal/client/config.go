package client

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/zeusync/viewsync/internal/core/components"
	"github.com/zeusync/viewsync/internal/core/interest"
	"github.com/zeusync/viewsync/internal/core/models"
	"github.com/zeusync/viewsync/internal/core/observability/log"
	"github.com/zeusync/viewsync/internal/core/protocol"
)

// Transports accepted in Config.Transport.
const (
	TransportWebsocket = "websocket"
	TransportQUIC      = "quic"
	TransportMemory    = "memory"
)

// Game types select what Interact does.
const (
	GameTypeLights = "lights"
	GameTypeTiles  = "tiles"
)

// Config is the client configuration. It is read from YAML and can be
// changed at runtime through worker flags.
type Config struct {
	LogLevel   log.Level       `json:"log_level" yaml:"log_level"`
	Transport  string          `json:"transport" yaml:"transport"`
	Connection protocol.Config `json:"connection" yaml:"connection"`

	// BootstrapEntity receives the client's commands.
	BootstrapEntity models.EntityID `json:"bootstrap_entity" yaml:"bootstrap_entity"`

	OpBatchSize int           `json:"op_batch_size" yaml:"op_batch_size"`
	OpWait      time.Duration `json:"op_wait" yaml:"op_wait"`

	PingInterval   time.Duration `json:"ping_interval" yaml:"ping_interval"`
	StatusInterval time.Duration `json:"status_interval" yaml:"status_interval"`

	AbsoluteInterest bool    `json:"absolute_interest" yaml:"absolute_interest"`
	ViewDistance     float32 `json:"view_distance" yaml:"view_distance"`

	PositionMappingX components.CoordinateMapping `json:"position_mapping_x" yaml:"position_mapping_x"`
	PositionMappingY components.CoordinateMapping `json:"position_mapping_y" yaml:"position_mapping_y"`
	PositionMappingZ components.CoordinateMapping `json:"position_mapping_z" yaml:"position_mapping_z"`

	HidePlayerClientEntityModel bool   `json:"hide_player_client_entity_model" yaml:"hide_player_client_entity_model"`
	GameType                    string `json:"game_type" yaml:"game_type"`

	// ControllerFrameDirection is the view direction used by SpawnCube.
	ControllerFrameDirection mgl32.Vec3 `json:"controller_frame_direction" yaml:"controller_frame_direction"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel:                 log.LevelInfo,
		Transport:                TransportWebsocket,
		Connection:               protocol.DefaultConfig(),
		BootstrapEntity:          1,
		OpBatchSize:              256,
		OpWait:                   16 * time.Millisecond,
		PingInterval:             999 * time.Millisecond,
		StatusInterval:           2449 * time.Millisecond,
		ViewDistance:             interest.MinEdgeLength,
		PositionMappingX:         components.MappingPositiveX,
		PositionMappingY:         components.MappingPositiveY,
		PositionMappingZ:         components.MappingPositiveZ,
		GameType:                 GameTypeLights,
		ControllerFrameDirection: mgl32.Vec3{0, 0, 1},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Transport {
	case TransportWebsocket, TransportQUIC, TransportMemory:
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.Transport != TransportMemory && c.Connection.Address == "" {
		return fmt.Errorf("connection address is required")
	}
	if c.OpBatchSize <= 0 {
		return fmt.Errorf("op_batch_size must be positive, got %d", c.OpBatchSize)
	}
	if c.PingInterval <= 0 || c.StatusInterval <= 0 {
		return fmt.Errorf("ping_interval and status_interval must be positive")
	}
	if c.ViewDistance < 0 {
		return fmt.Errorf("view_distance must not be negative")
	}
	switch c.GameType {
	case GameTypeLights, GameTypeTiles:
	default:
		return fmt.Errorf("unknown game_type %q", c.GameType)
	}
	return nil
}

// Mapping returns the local to world coordinate mapping.
func (c Config) Mapping() components.Mapping3 {
	return components.Mapping3{c.PositionMappingX, c.PositionMappingY, c.PositionMappingZ}
}

// ApplyFlag sets the option a worker flag names. Unknown flags are
// reported as not applied; invalid values leave the config unchanged.
func (c *Config) ApplyFlag(name, value string) (bool, error) {
	var err error
	switch name {
	case "absolute_interest":
		err = parseBool(value, &c.AbsoluteInterest)
	case "view_distance":
		var f float64
		if f, err = strconv.ParseFloat(value, 32); err == nil {
			c.ViewDistance = float32(f)
		}
	case "position_mapping_x":
		err = c.PositionMappingX.UnmarshalText([]byte(value))
	case "position_mapping_y":
		err = c.PositionMappingY.UnmarshalText([]byte(value))
	case "position_mapping_z":
		err = c.PositionMappingZ.UnmarshalText([]byte(value))
	case "hide_player_client_entity_model":
		err = parseBool(value, &c.HidePlayerClientEntityModel)
	case "game_type":
		if value != GameTypeLights && value != GameTypeTiles {
			err = fmt.Errorf("unknown game type %q", value)
		} else {
			c.GameType = value
		}
	case "controller_frame_direction":
		err = parseVec3(value, &c.ControllerFrameDirection)
	default:
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("flag %s: %w", name, err)
	}
	return true, nil
}

func parseBool(value string, out *bool) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return err
	}
	*out = b
	return nil
}

// parseVec3 accepts "x,y,z" with optional spaces.
func parseVec3(value string, out *mgl32.Vec3) error {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return fmt.Errorf("expected three comma separated values, got %q", value)
	}
	var v mgl32.Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return err
		}
		v[i] = float32(f)
	}
	*out = v
	return nil
}
