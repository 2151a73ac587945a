package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Semantic backends.
const (
	SemanticNER = "ner" // GiNZA sidecar
	SemanticLLM = "llm" // local OpenAI-compatible LLM
	SemanticOff = "off" // pattern-only
)

// Cfg holds the runtime settings of a masking run. The masking rules
// themselves (keywords, marker, prefix, length limit) are fixed and live in
// sanitize.Rules.
type Cfg struct {
	// Semantic tier
	Semantic     string        // MASK_SEMANTIC=ner|llm|off
	NERURL       string        // MASK_NER_URL=http://sanitize-ner:8001
	LLMURL       string        // MASK_LLM_URL=http://ollama:11434
	LLMModel     string        // MASK_LLM_MODEL=qwen2.5:0.5b
	ProbeTimeout time.Duration // MASK_PROBE_TIMEOUT=5s

	// Operator interaction
	AssumeYes bool // MASK_YES=true skips the pattern-only confirmation

	LogLevel slog.Level // MASK_LOG_LEVEL=info
}

// Flag names shared by the CLI and the MASK_* environment variables.
const (
	FlagSemantic     = "semantic"
	FlagNERURL       = "ner-url"
	FlagLLMURL       = "llm-url"
	FlagLLMModel     = "llm-model"
	FlagProbeTimeout = "probe-timeout"
	FlagYes          = "yes"
	FlagLogLevel     = "log-level"
)

var defaults = map[string]any{
	FlagSemantic:     SemanticNER,
	FlagNERURL:       "http://sanitize-ner:8001",
	FlagLLMURL:       "http://ollama:11434",
	FlagLLMModel:     "qwen2.5:0.5b",
	FlagProbeTimeout: 5 * time.Second,
	FlagYes:          false,
	FlagLogLevel:     "info",
}

// RegisterFlags adds the configuration flags to fs with their defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(FlagSemantic, SemanticNER, "semantic tier backend: ner, llm or off")
	fs.String(FlagNERURL, defaults[FlagNERURL].(string), "base URL of the NER sidecar")
	fs.String(FlagLLMURL, defaults[FlagLLMURL].(string), "base URL of the OpenAI-compatible LLM server")
	fs.String(FlagLLMModel, defaults[FlagLLMModel].(string), "LLM model name")
	fs.Duration(FlagProbeTimeout, defaults[FlagProbeTimeout].(time.Duration), "start-up capability check timeout")
	fs.BoolP(FlagYes, "y", false, "continue in pattern-only mode without asking")
	fs.String(FlagLogLevel, "info", "log level (debug, info, warn, error)")
}

// Load reads .env (if present), MASK_* environment variables and the given
// flags, in increasing order of precedence. fs may be nil.
func Load(fs *pflag.FlagSet) (*Cfg, error) {
	// Best-effort: load .env from current directory
	_ = godotenv.Load()

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.SetEnvPrefix("MASK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	semantic := strings.ToLower(strings.TrimSpace(v.GetString(FlagSemantic)))
	switch semantic {
	case SemanticNER, SemanticLLM, SemanticOff:
	case "", "none", "false", "0":
		semantic = SemanticOff
	default:
		return nil, fmt.Errorf("config: unknown semantic backend %q (want ner, llm or off)", semantic)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(v.GetString(FlagLogLevel)))); err != nil {
		return nil, fmt.Errorf("config: log level: %w", err)
	}

	timeout := v.GetDuration(FlagProbeTimeout)
	if timeout <= 0 {
		timeout = defaults[FlagProbeTimeout].(time.Duration)
	}

	return &Cfg{
		Semantic:     semantic,
		NERURL:       strings.TrimRight(strings.TrimSpace(v.GetString(FlagNERURL)), "/"),
		LLMURL:       strings.TrimRight(strings.TrimSpace(v.GetString(FlagLLMURL)), "/"),
		LLMModel:     strings.TrimSpace(v.GetString(FlagLLMModel)),
		ProbeTimeout: timeout,
		AssumeYes:    v.GetBool(FlagYes),
		LogLevel:     level,
	}, nil
}
