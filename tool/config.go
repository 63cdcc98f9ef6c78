package tool

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultConfigPath = "qrdrop.yaml"

type QRConfig struct {
	Size  int    `yaml:"size"`
	Level string `yaml:"level"`
}

type ReceiveConfig struct {
	RenameOnReceive bool          `yaml:"renameOnReceive"`
	RejectCooldown  time.Duration `yaml:"rejectCooldown"`
	FramesPerSecond float64       `yaml:"framesPerSecond"`
}

type APIConfig struct {
	Listen string `yaml:"listen"`
}

type NotifyConfig struct {
	URL string `yaml:"url"`
}

// AppConfig is the on-disk configuration.
type AppConfig struct {
	Root    string        `yaml:"root"`
	LogDir  string        `yaml:"logDir"`
	QR      QRConfig      `yaml:"qr"`
	Receive ReceiveConfig `yaml:"receive"`
	API     APIConfig     `yaml:"api"`
	Notify  NotifyConfig  `yaml:"notify"`
}

func DefaultAppConfig() AppConfig {
	return AppConfig{
		Root:   "transfers",
		LogDir: defaultLogDir,
		QR: QRConfig{
			Size:  512,
			Level: "low",
		},
		Receive: ReceiveConfig{
			RejectCooldown:  3 * time.Second,
			FramesPerSecond: 10,
		},
		API: APIConfig{
			Listen: "127.0.0.1:53318",
		},
	}
}

// LoadConfig reads path over the defaults. An empty path uses DefaultConfigPath;
// a missing file is not an error.
func LoadConfig(path string) (AppConfig, error) {
	cfg := DefaultAppConfig()
	if path == "" {
		path = DefaultConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c AppConfig) Validate() error {
	if c.Root == "" {
		return errors.New("root must not be empty")
	}
	if c.QR.Size <= 0 {
		return fmt.Errorf("qr.size must be positive, got %d", c.QR.Size)
	}
	if c.Receive.RejectCooldown < 0 {
		return errors.New("receive.rejectCooldown must not be negative")
	}
	if c.Receive.FramesPerSecond < 0 {
		return errors.New("receive.framesPerSecond must not be negative")
	}
	return nil
}
