package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/mutker/cpapflow/internal/breath"
	"codeberg.org/mutker/cpapflow/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel  = LogLevelInfo
	DefaultJobs      = 1
	DefaultHistoryDB = "/var/lib/cpapflow/history.db"
	DefaultLimit     = 20

	// CPAP pressure range in cmH2O
	MinCPAPPressure = 4
	MaxCPAPPressure = 25

	defaultEnvPrefix  = "CPAPFLOW"
	configPathEnvName = "_CONFIG"
	configName        = "cpapflow"
	configType        = "toml"
)

type Config struct {
	LogLevel        LogLevel `mapstructure:"log_level"`
	LogFile         string   `mapstructure:"log_file"`
	OutputDir       string   `mapstructure:"output_dir"`
	PlotData        bool     `mapstructure:"plot_data"`
	Jobs            int      `mapstructure:"jobs"`
	Detector        Detector `mapstructure:"detector"`
	CPAPPressure    int      `mapstructure:"cpap_pressure"`
	History         bool     `mapstructure:"history"`
	HistoryDB       string   `mapstructure:"history_db"`
	Limit           int      `mapstructure:"limit"`
	MetricsTextfile string   `mapstructure:"metrics_textfile"`

	Command Command  `mapstructure:"-"`
	Files   []string `mapstructure:"-"`
}

type Detector struct {
	Height     float64 `mapstructure:"height"`
	Distance   int     `mapstructure:"distance"`
	Prominence float64 `mapstructure:"prominence"`
}

func (d Detector) Params() breath.Params {
	return breath.Params{
		Height:     d.Height,
		Distance:   d.Distance,
		Prominence: d.Prominence,
	}
}

func Load(opts ...Option) (*Config, error) {
	errFactory := errors.New()

	o := &options{envPrefix: defaultEnvPrefix}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
		}
	}
	if !o.argsSet {
		o.args = os.Args[1:]
	}

	v := viper.New()
	setDefaults(v)

	fs := newFlagSet()
	if err := fs.Parse(o.args); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}
	if err := bindFlags(v, fs); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v.SetEnvPrefix(o.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := readConfigFile(v, o, fs); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	cfg.Command = CommandAnalyze
	cfg.Files = fs.Args()
	if len(cfg.Files) > 0 && cfg.Files[0] == string(CommandHistory) {
		cfg.Command = CommandHistory
		cfg.Files = cfg.Files[1:]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := breath.DefaultParams()

	v.SetDefault("log_level", string(DefaultLogLevel))
	v.SetDefault("log_file", "")
	v.SetDefault("output_dir", "")
	v.SetDefault("plot_data", false)
	v.SetDefault("jobs", DefaultJobs)
	v.SetDefault("detector.height", d.Height)
	v.SetDefault("detector.distance", d.Distance)
	v.SetDefault("detector.prominence", d.Prominence)
	v.SetDefault("cpap_pressure", 0)
	v.SetDefault("history", false)
	v.SetDefault("history_db", DefaultHistoryDB)
	v.SetDefault("limit", DefaultLimit)
	v.SetDefault("metrics_textfile", "")
}

func newFlagSet() *pflag.FlagSet {
	d := breath.DefaultParams()

	fs := pflag.NewFlagSet(configName, pflag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] FILE...\n       %s history [flags]\n\nFlags:\n", configName, configName)
		fs.PrintDefaults()
	}

	fs.StringP("config", "c", "", "Path to config file")
	fs.String("log-level", string(DefaultLogLevel), "Log level (debug, info, warning, error)")
	fs.String("log-file", "", "Also write JSON logs to this file")
	fs.StringP("output-dir", "o", "", "Write artifacts here instead of next to the input")
	fs.Bool("plot-data", false, "Export the flow series as <stem>_flow.csv")
	fs.IntP("jobs", "j", DefaultJobs, "Number of recordings analysed concurrently")
	fs.Float64("height", d.Height, "Minimum breath peak flow (m^3/s)")
	fs.Int("distance", d.Distance, "Minimum samples between breath peaks")
	fs.Float64("prominence", d.Prominence, "Minimum breath peak prominence (m^3/s)")
	fs.Int("cpap-pressure", 0, "CPAP pressure setting in cmH2O (4-25, 0 to omit)")
	fs.Bool("history", false, "Record runs in the history database")
	fs.String("history-db", DefaultHistoryDB, "Path to the history database")
	fs.IntP("limit", "n", DefaultLimit, "Number of runs listed by the history command")
	fs.String("metrics-textfile", "", "Write Prometheus metrics to this file on exit")

	return fs
}

var flagKeys = map[string]string{
	"log-level":        "log_level",
	"log-file":         "log_file",
	"output-dir":       "output_dir",
	"plot-data":        "plot_data",
	"jobs":             "jobs",
	"height":           "detector.height",
	"distance":         "detector.distance",
	"prominence":       "detector.prominence",
	"cpap-pressure":    "cpap_pressure",
	"history":          "history",
	"history-db":       "history_db",
	"limit":            "limit",
	"metrics-textfile": "metrics_textfile",
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			return fmt.Errorf("flag %s: %w", name, err)
		}
	}
	return nil
}

func readConfigFile(v *viper.Viper, o *options, fs *pflag.FlagSet) error {
	errFactory := errors.New()

	path := o.configPath
	if f := fs.Lookup("config"); f != nil && f.Changed {
		path = f.Value.String()
	}
	if path == "" {
		path = os.Getenv(o.envPrefix + configPathEnvName)
	}

	v.SetConfigType(configType)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(filepath.Join("/etc", configName))
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", configName))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	return nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	if !c.LogLevel.IsValid() {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel.String())
	}

	if err := c.Detector.Params().Validate(); err != nil {
		return err
	}

	if c.Jobs < 1 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, fmt.Sprintf("jobs must be at least 1, got %d", c.Jobs))
	}

	if c.Limit < 1 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, fmt.Sprintf("limit must be at least 1, got %d", c.Limit))
	}

	if c.History && c.HistoryDB == "" {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "history_db must be set when history is enabled")
	}

	return ValidateCPAPPressure(c.CPAPPressure)
}

// ValidateCPAPPressure accepts 0 (unset) or a whole cmH2O setting within the
// device range.
func ValidateCPAPPressure(p int) error {
	if p == 0 {
		return nil
	}
	if p < MinCPAPPressure || p > MaxCPAPPressure {
		return errors.New().WithData(errors.ErrInvalidCPAPSetting, p)
	}
	return nil
}
