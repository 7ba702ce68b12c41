package core

import (
	"fmt"
	"strconv"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
)

// Environment keys read by LoadConfiguration
const (
	EnvTimebase       = "KORU_TIMEBASE"
	EnvBuildMeshes    = "KORU_BUILD_MESHES"
	EnvBuildSkeletons = "KORU_BUILD_SKELETONS"
	EnvFramesPerSec   = "KORU_FPS"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Import ImportConfiguration
	Time   TimeConfiguration
}

// ImportConfiguration is used to configure document import
type ImportConfiguration struct {
	// Timebase scales animation curve time to keyframe time
	Timebase float64

	BuildMeshes    bool
	BuildSkeletons bool
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int
}

// DefaultConfiguration returns the settings used when nothing is configured
func DefaultConfiguration() Configuration {
	return Configuration{
		Import: ImportConfiguration{
			Timebase:       1000,
			BuildMeshes:    true,
			BuildSkeletons: true,
		},
		Time: TimeConfiguration{
			FramesPerSecond: 60,
		},
	}
}

// LoadConfiguration loads the given .env files into the environment and
// overrides the defaults with the KORU_* variables found there.
func LoadConfiguration(files ...string) (Configuration, error) {
	cfg := DefaultConfiguration()
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return cfg, fmt.Errorf("core: loading %v: %w", files, err)
		}
		envy.Reload()
	}

	var err error
	if cfg.Import.Timebase, err = envFloat(EnvTimebase, cfg.Import.Timebase); err != nil {
		return cfg, err
	}
	if cfg.Import.Timebase <= 0 {
		return cfg, fmt.Errorf("core: %s must be positive", EnvTimebase)
	}
	if cfg.Import.BuildMeshes, err = envBool(EnvBuildMeshes, cfg.Import.BuildMeshes); err != nil {
		return cfg, err
	}
	if cfg.Import.BuildSkeletons, err = envBool(EnvBuildSkeletons, cfg.Import.BuildSkeletons); err != nil {
		return cfg, err
	}
	if cfg.Time.FramesPerSecond, err = envInt(EnvFramesPerSec, cfg.Time.FramesPerSecond); err != nil {
		return cfg, err
	}
	if cfg.Time.FramesPerSecond < 0 {
		return cfg, fmt.Errorf("core: %s must not be negative", EnvFramesPerSec)
	}
	return cfg, nil
}

func envFloat(key string, def float64) (float64, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def, fmt.Errorf("core: %s: %w", key, err)
	}
	return v, nil
}

func envInt(key string, def int) (int, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def, fmt.Errorf("core: %s: %w", key, err)
	}
	return v, nil
}

func envBool(key string, def bool) (bool, error) {
	raw := envy.Get(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def, fmt.Errorf("core: %s: %w", key, err)
	}
	return v, nil
}
