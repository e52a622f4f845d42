package config

import (
	"os"
	"runtime"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	WorkerCount          int
	TabWidth             int
	DecompressionCeiling int64
	MaxGraphDepth        int
	PreferCompiled       bool
	PolicyFile           string
	TranslateDialogue    bool
	TranslateNarration   bool
	TranslateMenus       bool
	TranslateScreens     bool
	TranslateUILabels    bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	return &Config{
		WorkerCount:          getEnvInt("WORKER_COUNT", runtime.NumCPU()),
		TabWidth:             getEnvInt("TAB_WIDTH", 4),
		DecompressionCeiling: int64(getEnvInt("DECOMPRESSION_CEILING", 64<<20)),
		MaxGraphDepth:        getEnvInt("MAX_GRAPH_DEPTH", 64),
		PreferCompiled:       getEnvBool("PREFER_COMPILED", false),
		PolicyFile:           getEnv("POLICY_FILE", ""),
		TranslateDialogue:    getEnvBool("TRANSLATE_DIALOGUE", true),
		TranslateNarration:   getEnvBool("TRANSLATE_NARRATION", true),
		TranslateMenus:       getEnvBool("TRANSLATE_MENUS", true),
		TranslateScreens:     getEnvBool("TRANSLATE_SCREENS", true),
		TranslateUILabels:    getEnvBool("TRANSLATE_UI_LABELS", true),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
