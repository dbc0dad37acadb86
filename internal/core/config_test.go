package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}
	return configPath
}

func TestLoadConfig_Success(t *testing.T) {
	configPath := writeConfig(t, `port: 9090
logLevel: debug
store:
  type: redis
  connectionString: "redis://localhost:6379/0"
  capacityLimit: 5000
uploadPipeline:
  - name: CompressCommand
    maxDimension: 1024
    quality: 0.6
portal:
  passphrase: "letmein"
analysis:
  model: test-model
  timeout: 15s
contact:
  whatsapp: "https://wa.me/1"
`)

	config, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Port != 9090 {
		t.Errorf("Expected port to be 9090, got %d", config.Port)
	}
	if config.LogLevel != "debug" {
		t.Errorf("Expected logLevel debug, got %q", config.LogLevel)
	}
	if config.Store.Type != "redis" || config.Store.ConnectionString != "redis://localhost:6379/0" {
		t.Errorf("Unexpected store config %+v", config.Store)
	}
	if config.Store.CapacityLimit != 5000 {
		t.Errorf("Expected capacityLimit 5000, got %d", config.Store.CapacityLimit)
	}
	if len(config.UploadPipeline) != 1 {
		t.Fatalf("Expected 1 pipeline command, got %d", len(config.UploadPipeline))
	}
	params := config.UploadPipeline[0].Params
	if params["maxDimension"] != 1024 {
		t.Errorf("Expected maxDimension 1024, got %v", params["maxDimension"])
	}
	if params["quality"] != 0.6 {
		t.Errorf("Expected quality 0.6, got %v", params["quality"])
	}
	if _, ok := params["name"]; ok {
		t.Error("Expected name to be excluded from params")
	}
	if config.Portal.Passphrase != "letmein" {
		t.Errorf("Expected passphrase letmein, got %q", config.Portal.Passphrase)
	}
	if config.Analysis.Model != "test-model" || config.Analysis.Timeout != 15*time.Second {
		t.Errorf("Unexpected analysis config %+v", config.Analysis)
	}
	if config.Analysis.APIKeyEnv != "GEMINI_API_KEY" {
		t.Errorf("Expected default apiKeyEnv to survive, got %q", config.Analysis.APIKeyEnv)
	}
	if config.Contact.WhatsApp != "https://wa.me/1" {
		t.Errorf("Unexpected whatsapp link %q", config.Contact.WhatsApp)
	}
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "port: 8081\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	defaults := DefaultConfig()
	if config.Store != defaults.Store {
		t.Errorf("Expected default store %+v, got %+v", defaults.Store, config.Store)
	}
	if config.Portal.Passphrase != "2026" {
		t.Errorf("Expected default passphrase 2026, got %q", config.Portal.Passphrase)
	}
	if len(config.UploadPipeline) != 1 || config.UploadPipeline[0].Name != "CompressCommand" {
		t.Errorf("Expected default CompressCommand pipeline, got %+v", config.UploadPipeline)
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	config, err := LoadConfig("/path/that/does/not/exist/config.yaml")

	if err == nil {
		t.Fatal("Expected error for non-existent file, got nil")
	}
	if config != nil {
		t.Error("Expected config to be nil when file doesn't exist")
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "port: [unclosed"))

	if err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
	if config != nil {
		t.Error("Expected config to be nil for invalid YAML")
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "negative port",
			content: "port: -1\n",
			wantErr: "port must be between",
		},
		{
			name:    "unknown store",
			content: "store:\n  type: postgres\n",
			wantErr: "unsupported store type",
		},
		{
			name:    "zero capacity",
			content: "store:\n  type: memory\n  capacityLimit: 0\n",
			wantErr: "capacityLimit must be positive",
		},
		{
			name:    "empty passphrase",
			content: "portal:\n  passphrase: \"\"\n",
			wantErr: "passphrase must not be empty",
		},
		{
			name:    "empty command name",
			content: "uploadPipeline:\n  - quality: 0.5\n  - name: CompressCommand\n",
			wantErr: "empty name",
		},
		{
			name:    "unregistered command",
			content: "uploadPipeline:\n  - name: SharpenCommand\n  - name: CompressCommand\n",
			wantErr: "unknown command SharpenCommand",
		},
		{
			name:    "duplicate command",
			content: "uploadPipeline:\n  - name: CompressCommand\n  - name: CompressCommand\n",
			wantErr: "duplicate command name",
		},
		{
			name:    "empty pipeline",
			content: "uploadPipeline: []\n",
			wantErr: "must contain at least one command",
		},
		{
			name:    "pipeline without compression step",
			content: "uploadPipeline:\n  - name: CompressCommand\n  - name: SharpenCommand\n",
			wantErr: "must end with CompressCommand",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
