package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/saad130013/storyweaver-ai/internal/logger"
	"github.com/saad130013/storyweaver-ai/internal/utils"
)

// ExportConfig tunes the page rasterizer.
type ExportConfig struct {
	// PageWidthPx/PageHeightPx is the raster size of one PDF page (A4 portrait
	// proportions by default).
	PageWidthPx  int `yaml:"page_width_px"`
	PageHeightPx int `yaml:"page_height_px"`
	// SlideWidthPx/SlideHeightPx is the raster size of one slide body image.
	SlideWidthPx  int `yaml:"slide_width_px"`
	SlideHeightPx int `yaml:"slide_height_px"`
}

type Config struct {
	Port      string       `yaml:"port"`
	AssetRoot string       `yaml:"asset_root"`
	FontPath  string       `yaml:"font_path"`
	Export    ExportConfig `yaml:"export"`
}

func defaults() Config {
	return Config{
		Port: "8080",
		Export: ExportConfig{
			PageWidthPx:   1240,
			PageHeightPx:  1754,
			SlideWidthPx:  1280,
			SlideHeightPx: 720,
		},
	}
}

// Load reads the optional YAML file named by STORYWEAVER_CONFIG, then lets
// individual env vars override it.
func Load(log *logger.Logger) (Config, error) {
	cfg := defaults()

	if path := os.Getenv("STORYWEAVER_CONFIG"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
		log.Info("loaded config file", "path", path)
	}

	cfg.Port = utils.GetEnv("PORT", cfg.Port, log)
	cfg.AssetRoot = utils.GetEnv("ASSET_ROOT", cfg.AssetRoot, log)
	cfg.FontPath = utils.GetEnv("FONT_PATH", cfg.FontPath, log)

	if cfg.Export.PageWidthPx <= 0 || cfg.Export.PageHeightPx <= 0 {
		return cfg, fmt.Errorf("invalid export page size %dx%d", cfg.Export.PageWidthPx, cfg.Export.PageHeightPx)
	}
	if cfg.Export.SlideWidthPx <= 0 || cfg.Export.SlideHeightPx <= 0 {
		return cfg, fmt.Errorf("invalid export slide size %dx%d", cfg.Export.SlideWidthPx, cfg.Export.SlideHeightPx)
	}
	return cfg, nil
}
