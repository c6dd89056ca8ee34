package cardistance

import (
	"image"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

const envPrefix = "CARDISTANCE_"

// Config gathers the fixed constants of the pipeline. DefaultConfig matches
// the reference setup; every field may be overridden from the environment.
type Config struct {
	Resolution  image.Point
	FPS         float64
	FixedPacing bool

	Label         string
	MinConfidence float64

	Calibration Calibration
	Thresholds  Thresholds

	FadeStep        float64
	AlertMessage    string
	FreeMessage     string
	FallbackMessage string
	BannerTop       int
	BannerPadding   int
}

func DefaultConfig() Config {
	return Config{
		Resolution:      image.Pt(1280, 720),
		FPS:             DefaultFPS,
		Label:           DefaultLabel,
		MinConfidence:   DefaultMinConfidence,
		Calibration:     DefaultCalibration(),
		Thresholds:      DefaultThresholds(),
		FadeStep:        DefaultFadeStep,
		AlertMessage:    DefaultAlertMessage,
		FreeMessage:     DefaultFreeMessage,
		FallbackMessage: DefaultFallbackAlert,
		BannerTop:       DefaultBannerTop,
		BannerPadding:   DefaultBannerPadding,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Resolution.X <= 0 || c.Resolution.Y <= 0:
		return errors.Errorf("resolution must be positive, got %v", c.Resolution)
	case c.FPS <= 0:
		return errors.Errorf("fps must be positive, got %v", c.FPS)
	case c.Label == "":
		return errors.New("label must not be empty")
	case c.MinConfidence < 0 || c.MinConfidence > 1:
		return errors.Errorf("min confidence must be within [0,1], got %v", c.MinConfidence)
	case c.Calibration.KnownWidth <= 0 || c.Calibration.FocalLength <= 0:
		return errors.Errorf("calibration constants must be positive, got %+v", c.Calibration)
	case c.Thresholds.Alert < 0 || c.Thresholds.Alert > c.Thresholds.Caution:
		return errors.Errorf("thresholds out of order: alert %v, caution %v", c.Thresholds.Alert, c.Thresholds.Caution)
	case c.FadeStep <= 0 || c.FadeStep > 1:
		return errors.Errorf("fade step must be within (0,1], got %v", c.FadeStep)
	case c.AlertMessage == "" || c.FreeMessage == "" || c.FallbackMessage == "":
		return errors.New("advisory messages must not be empty")
	case c.BannerTop < 0 || c.BannerPadding < 0:
		return errors.Errorf("banner placement must not be negative, got top %d padding %d", c.BannerTop, c.BannerPadding)
	}
	return nil
}

// LoadConfig starts from DefaultConfig and applies CARDISTANCE_* variables.
// The given dotenv files are loaded first (".env" when none are named);
// each missing file is skipped on its own.
func LoadConfig(files ...string) (Config, error) {
	cfg := DefaultConfig()
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, errors.Wrapf(err, "loading env file %s", file)
		}
	}

	var err error
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(envPrefix + key); ok && err == nil {
			*dst, err = cast.ToIntE(v)
			err = errors.Wrap(err, envPrefix+key)
		}
	}
	setFloat := func(key string, dst *float64) {
		if v, ok := os.LookupEnv(envPrefix + key); ok && err == nil {
			*dst, err = cast.ToFloat64E(v)
			err = errors.Wrap(err, envPrefix+key)
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(envPrefix + key); ok && err == nil {
			*dst, err = cast.ToBoolE(v)
			err = errors.Wrap(err, envPrefix+key)
		}
	}
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}

	setInt("WIDTH", &cfg.Resolution.X)
	setInt("HEIGHT", &cfg.Resolution.Y)
	setFloat("FPS", &cfg.FPS)
	setBool("FIXED_PACING", &cfg.FixedPacing)
	setString("LABEL", &cfg.Label)
	setFloat("MIN_CONFIDENCE", &cfg.MinConfidence)
	setFloat("KNOWN_WIDTH", &cfg.Calibration.KnownWidth)
	setFloat("FOCAL_LENGTH", &cfg.Calibration.FocalLength)
	setFloat("ALERT_DISTANCE", &cfg.Thresholds.Alert)
	setFloat("CAUTION_DISTANCE", &cfg.Thresholds.Caution)
	setFloat("FADE_STEP", &cfg.FadeStep)
	setString("ALERT_MESSAGE", &cfg.AlertMessage)
	setString("FREE_MESSAGE", &cfg.FreeMessage)
	setString("FALLBACK_MESSAGE", &cfg.FallbackMessage)
	setInt("BANNER_TOP", &cfg.BannerTop)
	setInt("BANNER_PADDING", &cfg.BannerPadding)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}
