package core

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jo-hoe/sitelog/internal/backend/analysis"
	"github.com/jo-hoe/sitelog/internal/backend/commands"
	"github.com/jo-hoe/sitelog/internal/backend/commandstructure"
	"github.com/jo-hoe/sitelog/internal/backend/database"
	"github.com/jo-hoe/sitelog/internal/backend/gallery"
)

const (
	DefaultPort       = 8080
	DefaultLogLevel   = "info"
	DefaultPassphrase = "2026"
	DefaultBinURL     = "https://api.npoint.io/7b0e386d3ab7341478bf"
	DefaultWhatsApp   = "https://wa.me/254712345678"
)

// CommandConfig represents a generic command configuration
type CommandConfig struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:",inline"`
}

type Store struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
	CapacityLimit    int    `yaml:"capacityLimit"`
}

type Portal struct {
	Passphrase string `yaml:"passphrase"`
}

type Analysis struct {
	Endpoint  string        `yaml:"endpoint"`
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"apiKeyEnv"`
	Prompt    string        `yaml:"prompt"`
	Timeout   time.Duration `yaml:"timeout"`
}

type Contact struct {
	WhatsApp string `yaml:"whatsapp"`
}

type ServiceConfig struct {
	Port           int             `yaml:"port"`
	LogLevel       string          `yaml:"logLevel"`
	Store          Store           `yaml:"store"`
	UploadPipeline []CommandConfig `yaml:"uploadPipeline"`
	Portal         Portal          `yaml:"portal"`
	Analysis       Analysis        `yaml:"analysis"`
	Contact        Contact         `yaml:"contact"`
}

// DefaultConfig talks to the public bin and compresses uploads to 800px at quality 0.5
func DefaultConfig() *ServiceConfig {
	return &ServiceConfig{
		Port:     DefaultPort,
		LogLevel: DefaultLogLevel,
		Store: Store{
			Type:             database.TypeNpoint,
			ConnectionString: DefaultBinURL,
			CapacityLimit:    gallery.DefaultCapacityLimit,
		},
		UploadPipeline: []CommandConfig{
			{
				Name: compressCommandName,
				Params: map[string]any{
					"maxDimension": commands.DefaultMaxDimension,
					"quality":      commands.DefaultQuality,
					"maxPixels":    commands.DefaultMaxPixels,
				},
			},
		},
		Portal: Portal{
			Passphrase: DefaultPassphrase,
		},
		Analysis: Analysis{
			Endpoint:  analysis.DefaultEndpoint,
			Model:     analysis.DefaultModel,
			APIKeyEnv: analysis.DefaultAPIKeyEnv,
			Timeout:   60 * time.Second,
		},
		Contact: Contact{
			WhatsApp: DefaultWhatsApp,
		},
	}
}

// LoadConfig loads configuration from the specified YAML file on top of the defaults
func LoadConfig(configPath string) (*ServiceConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}
	return config, nil
}

// Validate checks the fields LoadConfig cannot default
func (c *ServiceConfig) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port must be between 1 and 65535, got %d", c.Port))
	}
	if !slices.Contains(database.SupportedTypes(), c.Store.Type) {
		errs = append(errs, fmt.Errorf("unsupported store type %q, expected one of %v", c.Store.Type, database.SupportedTypes()))
	}
	if c.Store.CapacityLimit <= 0 {
		errs = append(errs, fmt.Errorf("store capacityLimit must be positive, got %d", c.Store.CapacityLimit))
	}
	if strings.TrimSpace(c.Portal.Passphrase) == "" {
		errs = append(errs, errors.New("portal passphrase must not be empty"))
	}
	if c.Analysis.Timeout < 0 {
		errs = append(errs, fmt.Errorf("analysis timeout must not be negative, got %s", c.Analysis.Timeout))
	}
	if err := validateCommands(c.UploadPipeline); err != nil {
		errs = append(errs, fmt.Errorf("invalid command configuration: %w", err))
	}
	return errors.Join(errs...)
}

// compressCommandName is the step that turns any upload into the stored JPEG
const compressCommandName = "CompressCommand"

// validateCommands ensures all command configurations have required fields
func validateCommands(commands []CommandConfig) error {
	if len(commands) == 0 {
		return errors.New("uploadPipeline must contain at least one command")
	}
	if last := commands[len(commands)-1].Name; last != compressCommandName {
		return fmt.Errorf("uploadPipeline must end with %s, got %q", compressCommandName, last)
	}
	seenNames := make(map[string]bool)

	for i, cmd := range commands {
		if cmd.Name == "" {
			return fmt.Errorf("command at index %d has empty name", i)
		}
		if seenNames[cmd.Name] {
			return fmt.Errorf("duplicate command name: %s", cmd.Name)
		}
		if !commandstructure.DefaultRegistry.IsRegistered(cmd.Name) {
			return fmt.Errorf("unknown command %s, available: %v", cmd.Name, commandstructure.DefaultRegistry.GetRegisteredNames())
		}
		seenNames[cmd.Name] = true
	}

	return nil
}

// pipelineConfigs converts the YAML command list for the command registry
func (c *ServiceConfig) pipelineConfigs() []commandstructure.CommandConfig {
	configs := make([]commandstructure.CommandConfig, 0, len(c.UploadPipeline))
	for _, cmd := range c.UploadPipeline {
		configs = append(configs, commandstructure.CommandConfig{
			Name:   cmd.Name,
			Params: cmd.Params,
		})
	}
	return configs
}

func (c *ServiceConfig) analysisConfig() analysis.Config {
	return analysis.Config{
		Endpoint:  c.Analysis.Endpoint,
		Model:     c.Analysis.Model,
		APIKeyEnv: c.Analysis.APIKeyEnv,
		Prompt:    c.Analysis.Prompt,
		Timeout:   c.Analysis.Timeout,
	}
}
