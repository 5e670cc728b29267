package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"docintel/pkg/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EngineBoth selects the paddle and tesseract engines together.
const EngineBoth = "both"

const defaultConfigFile = "configs/config.yaml"

// Config holds every setting of the pipeline.
type Config struct {
	DatasetDir  string `yaml:"dataset_dir"`
	ReportsDir  string `yaml:"reports_dir"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`

	OCR       OCRConfig       `yaml:"ocr"`
	Generator GeneratorConfig `yaml:"generator"`
}

type OCRConfig struct {
	Engine     string `yaml:"engine"`
	Lang       string `yaml:"lang"`
	Preprocess bool   `yaml:"preprocess"`

	Paddle    PaddleConfig    `yaml:"paddle"`
	Tesseract TesseractConfig `yaml:"tesseract"`
	Azure     AzureConfig     `yaml:"azure"`
}

type PaddleConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type TesseractConfig struct {
	Languages []string `yaml:"languages"`
	PSM       int      `yaml:"psm"`
}

type AzureConfig struct {
	Endpoint string `yaml:"endpoint"`
	Key      string `yaml:"key"`
}

type GeneratorConfig struct {
	Locale           string  `yaml:"locale"`
	NoiseProbability float64 `yaml:"noise_probability"`
	FontDir          string  `yaml:"font_dir"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		DatasetDir: "dataset",
		ReportsDir: "reports",
		LogLevel:   "info",
		LogFormat:  "json",
		Port:       "8080",
		OCR: OCRConfig{
			Engine: models.EnginePaddle,
			Lang:   "en",
			Paddle: PaddleConfig{
				URL:     "http://127.0.0.1:8866/predict/ocr_system",
				Timeout: 60 * time.Second,
			},
			Tesseract: TesseractConfig{
				Languages: []string{"eng"},
			},
		},
		Generator: GeneratorConfig{
			Locale:           "en_US",
			NoiseProbability: 0.5,
			FontDir:          "/usr/share/fonts/truetype/dejavu",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, a .env
// file and the environment, in increasing order of precedence. An empty path
// means CONFIG_FILE or configs/config.yaml; only an explicitly named file has
// to exist.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	explicit := path != ""
	if !explicit {
		if env := os.Getenv("CONFIG_FILE"); env != "" {
			path, explicit = env, true
		} else {
			path = defaultConfigFile
		}
	}
	if err := cfg.readYAML(path, explicit); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) readYAML(path string, required bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (cfg *Config) applyEnv() error {
	setString(&cfg.DatasetDir, "DATASET_DIR")
	setString(&cfg.ReportsDir, "REPORTS_DIR")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFormat, "LOG_FORMAT")
	setString(&cfg.Port, "PORT")
	setString(&cfg.DatabaseURL, "DATABASE_URL")

	setString(&cfg.OCR.Engine, "OCR_ENGINE")
	setString(&cfg.OCR.Lang, "OCR_LANG")
	setString(&cfg.OCR.Paddle.URL, "PADDLE_OCR_URL")
	setString(&cfg.OCR.Azure.Endpoint, "AZURE_VISION_ENDPOINT")
	setString(&cfg.OCR.Azure.Key, "AZURE_VISION_KEY")
	setString(&cfg.Generator.FontDir, "FONT_DIR")
	setString(&cfg.Generator.Locale, "GENERATOR_LOCALE")

	if v := os.Getenv("OCR_PREPROCESS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid OCR_PREPROCESS %q: %w", v, err)
		}
		cfg.OCR.Preprocess = b
	}
	if v := os.Getenv("TESSERACT_LANGUAGES"); v != "" {
		cfg.OCR.Tesseract.Languages = strings.Split(v, "+")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate checks the values that cannot be defaulted.
func (cfg *Config) Validate() error {
	if strings.TrimSpace(cfg.DatasetDir) == "" {
		return errors.New("dataset directory must not be empty")
	}
	cfg.OCR.Engine = strings.ToLower(strings.TrimSpace(cfg.OCR.Engine))
	if cfg.OCR.Engine != EngineBoth && !slices.Contains(models.KnownEngines, cfg.OCR.Engine) {
		return fmt.Errorf("unknown OCR engine %q (want one of %s or %s)", cfg.OCR.Engine, strings.Join(models.KnownEngines, ", "), EngineBoth)
	}
	if cfg.Generator.NoiseProbability < 0 || cfg.Generator.NoiseProbability > 1 {
		return fmt.Errorf("noise probability %v out of range [0,1]", cfg.Generator.NoiseProbability)
	}
	return nil
}

// EngineNames expands the configured engine selection.
func (cfg *Config) EngineNames() []string {
	if cfg.OCR.Engine == EngineBoth {
		return []string{models.EnginePaddle, models.EngineTesseract}
	}
	return []string{cfg.OCR.Engine}
}

func (cfg *Config) RawDir() string          { return filepath.Join(cfg.DatasetDir, "raw") }
func (cfg *Config) LabelsDir() string       { return filepath.Join(cfg.DatasetDir, "labels") }
func (cfg *Config) OCRTextDir() string      { return filepath.Join(cfg.DatasetDir, "ocr_text") }
func (cfg *Config) PreprocessedDir() string { return filepath.Join(cfg.DatasetDir, "preprocessed") }

// OCRDir is where results of one engine are stored.
func (cfg *Config) OCRDir(engine string) string {
	return filepath.Join(cfg.OCRTextDir(), engine)
}
