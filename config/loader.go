package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kbukum/dataflow/logger"
)

// FileSystem is the part of the file system the loader touches.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

// OSFileSystem is the real file system.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadEnv exports the variables of a .env file. Variables already set in
// the environment win.
func (OSFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// LoaderConfig collects the LoaderOptions.
type LoaderConfig struct {
	FileSystem FileSystem
	// ConfigFile and EnvFile skip the search when set.
	ConfigFile string
	EnvFile    string
	// EnvPrefix restricts overrides to PREFIX_SECTION_KEY variables.
	EnvPrefix string
}

type LoaderOption func(*LoaderConfig)

func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// WithEnvPrefix binds SDFSCHED_SERVER_PORT to server.port for prefix
// "sdfsched".
func WithEnvPrefix(prefix string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvPrefix = strings.ToUpper(prefix) }
}

var searchDirs = []string{".", "./config", "./cmd/%s"}

// resolve returns the config and .env files to read, "" for none. Files are
// looked up as <service>.yml, <service>.yaml, config.yml, config.yaml and
// .env.<service>, .env in searchDirs, first match wins.
func (lc *LoaderConfig) resolve(service string) (configFile, envFile string) {
	first := func(names ...string) string {
		for _, dir := range searchDirs {
			dir = strings.ReplaceAll(dir, "%s", service)
			for _, name := range names {
				if p := dir + "/" + name; lc.FileSystem.Exists(p) {
					return p
				}
			}
		}
		return ""
	}

	configFile, envFile = lc.ConfigFile, lc.EnvFile
	if configFile == "" {
		configFile = first(service+".yml", service+".yaml", "config.yml", "config.yaml")
	}
	if envFile == "" {
		envFile = first(".env."+service, ".env")
	}
	return configFile, envFile
}

// LoadConfig decodes the configuration of service into cfg, a pointer to a
// struct with mapstructure tags. Sources, lowest precedence first: the
// config file, the .env file, then the environment.
func LoadConfig(service string, cfg any, opts ...LoaderOption) error {
	lc := LoaderConfig{FileSystem: OSFileSystem{}}
	for _, opt := range opts {
		opt(&lc)
	}
	configFile, envFile := lc.resolve(service)
	log := logger.WithComponent("config")

	v := viper.New()
	if configFile != "" {
		if !lc.FileSystem.Exists(configFile) {
			return fmt.Errorf("config file %s not found", configFile)
		}
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading %s: %w", configFile, err)
		}
		log.Debug("config file loaded", logger.Fields("path", configFile))
	}
	if envFile != "" && lc.FileSystem.Exists(envFile) {
		if err := lc.FileSystem.LoadEnv(envFile); err != nil {
			log.Warn("env file skipped", logger.Fields("path", envFile, logger.FieldError, err.Error()))
		}
	}

	if lc.EnvPrefix != "" {
		v.SetEnvPrefix(lc.EnvPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := bindEnv(v, reflect.TypeOf(cfg), ""); err != nil {
		return err
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decoding %s config: %w", service, err)
	}
	return nil
}

// bindEnv binds an environment variable to every leaf key of t, so that
// variables override keys the config file does not mention.
func bindEnv(v *viper.Viper, t reflect.Type, prefix string) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		if opts == "squash" {
			if err := bindEnv(v, f.Type, prefix); err != nil {
				return err
			}
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := prefix + name
		if f.Type.Kind() == reflect.Struct {
			if err := bindEnv(v, f.Type, key+"."); err != nil {
				return err
			}
			continue
		}
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}
	return nil
}

// Load runs LoadConfig, then applies defaults and validates.
func Load(service string, cfg Config, opts ...LoaderOption) error {
	if err := LoadConfig(service, cfg, opts...); err != nil {
		return err
	}
	cfg.ApplyDefaults()
	return cfg.Validate()
}

// LoadApp loads the sdfsched configuration.
func LoadApp(service string, opts ...LoaderOption) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := Load(service, cfg, opts...); err != nil {
		return nil, err
	}
	return cfg, nil
}
