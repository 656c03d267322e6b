package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ErwinsExpertise/go-wwise-export/pak"
	"github.com/ErwinsExpertise/go-wwise-export/uasset"
	"github.com/joho/godotenv"
	"github.com/ossrs/go-oryx-lib/errors"
)

const (
	ConfigFileName = "AudioExportConfig.json"

	DefaultGameDirectory = "C:/UntilDawn/UntilDawn/Windows/Bates/Content/Paks"
	DefaultAesKey        = "0x0000000000000000000000000000000000000000000000000000000000000000"
	DefaultObjectPath    = "Bates/Content/WwiseAudio/Events/MUS/MUS_Events_WU_Prologue/Play_MUS_BAT_Prologue.uasset"
	DefaultGameOverride  = uasset.GameUE5_3
)

// Environment variables that override the config file for one run.
const (
	envGameDirectory = "WWISE_GAME_DIRECTORY"
	envAesKey        = "WWISE_AES_KEY"
	envObjectPath    = "WWISE_OBJECT_PATH"
	envGameOverride  = "WWISE_GAME_OVERRIDE"
	envMappingsPath  = "WWISE_MAPPINGS_PATH"
)

// AudioExportConfig is the JSON config kept next to the executable.
type AudioExportConfig struct {
	GameDirectory string      `json:"gameDirectory"`
	AesKey        string      `json:"aesKey"`
	ObjectPath    string      `json:"objectPath"`
	GameOverride  uasset.Game `json:"gameOverride"`

	// MappingsPath is an optional .usmap file for unversioned packages.
	MappingsPath string `json:"mappingsPath"`
}

func DefaultConfig() *AudioExportConfig {
	return &AudioExportConfig{
		GameDirectory: DefaultGameDirectory,
		AesKey:        DefaultAesKey,
		ObjectPath:    DefaultObjectPath,
		GameOverride:  DefaultGameOverride,
	}
}

// LoadConfig reads the config file, creating it with defaults when it does
// not exist, then applies the .env and environment overrides.
func LoadConfig(name string) (*AudioExportConfig, error) {
	c := DefaultConfig()

	b, err := os.ReadFile(name)
	switch {
	case err == nil:
		fmt.Printf("Reading config file %s\n", name)
		if err := json.Unmarshal(b, c); err != nil {
			return nil, errors.Wrapf(err, "decode %v", name)
		}
	case os.IsNotExist(err):
		fmt.Printf("Creating config file %s\n", name)
		if err := c.Save(name); err != nil {
			return nil, err
		}
	default:
		return nil, errors.Wrapf(err, "read %v", name)
	}

	envFile := filepath.Join(filepath.Dir(name), ".env")
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "load %v", envFile)
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %v", name)
	}
	return c, nil
}

// Save writes the config indented, with the game as its name.
func (c *AudioExportConfig) Save(name string) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encode config")
	}
	if err := os.WriteFile(name, b, 0644); err != nil {
		return errors.Wrapf(err, "write %v", name)
	}
	return nil
}

func (c *AudioExportConfig) applyEnv() error {
	for env, field := range map[string]*string{
		envGameDirectory: &c.GameDirectory,
		envAesKey:        &c.AesKey,
		envObjectPath:    &c.ObjectPath,
		envMappingsPath:  &c.MappingsPath,
	} {
		if v, ok := os.LookupEnv(env); ok {
			*field = v
		}
	}
	if v, ok := os.LookupEnv(envGameOverride); ok {
		game, err := uasset.ParseGame(v)
		if err != nil {
			return errors.Wrapf(err, "%v", envGameOverride)
		}
		c.GameOverride = game
	}
	return nil
}

func (c *AudioExportConfig) Validate() error {
	if strings.TrimSpace(c.GameDirectory) == "" {
		return errors.New("gameDirectory is empty")
	}
	if strings.TrimSpace(c.ObjectPath) == "" {
		return errors.New("objectPath is empty")
	}
	if _, err := c.Key(); err != nil {
		return err
	}
	if _, err := uasset.ParseGame(c.GameOverride.String()); err != nil {
		return err
	}
	return nil
}

// Key decodes the AES key. An empty key means the archives are not
// encrypted.
func (c *AudioExportConfig) Key() ([]byte, error) {
	key, err := pak.ParseKey(c.AesKey)
	if err != nil {
		return nil, errors.Wrapf(err, "aesKey")
	}
	return key, nil
}
