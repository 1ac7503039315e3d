package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const (
	defaultPath               = "."
	defaultMaxRequestBodySize = "100KB"
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int    `json:"port" yaml:"port"`
		MaxRequestBodySize string `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	Postgres *PostgresConfig `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	// CityData configures the open-data portal client and the dataset ids
	// the ingestion jobs pull from.
	CityData *CityDataConfig `json:"cityData" yaml:"cityData"`

	// Permits configures demolition permit validation.
	Permits *PermitsConfig `json:"permits" yaml:"permits"`

	// Traffic configures congestion classification.
	Traffic *TrafficConfig `json:"traffic" yaml:"traffic"`

	// Schools configures school zone hazard generation.
	Schools *SchoolsConfig `json:"schools" yaml:"schools"`

	// Alerts configures the alert engine: matching buffer, cooldown and
	// dispatch concurrency.
	Alerts *AlertsConfig `json:"alerts" yaml:"alerts"`

	// Firebase configuration for push notifications
	Firebase *FirebaseConfig `json:"firebase" yaml:"firebase"`

	// Region pins the local timezone the peak-hour rules are evaluated in.
	Region *RegionConfig `json:"region" yaml:"region"`
}

// RegionConfig defines the deployment region.
type RegionConfig struct {
	Timezone string `json:"timezone" yaml:"timezone"`
}

// PostgresConfig defines the spatial datastore connection.
type PostgresConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     string `json:"port" yaml:"port"`
	UserName string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	DBName   string `json:"dbName" yaml:"dbName"`
	SSLMode  string `json:"sslMode" yaml:"sslMode"`

	MaxOpenConns    int           `json:"maxOpenConns" yaml:"maxOpenConns"`
	MaxIdleConns    int           `json:"maxIdleConns" yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `json:"connMaxLifetime" yaml:"connMaxLifetime"`
}

// CityDataConfig defines the open-data portal endpoint and datasets.
type CityDataConfig struct {
	BaseURL  string        `json:"baseUrl" yaml:"baseUrl"`
	AppToken string        `json:"appToken" yaml:"appToken"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
	PageSize int           `json:"pageSize" yaml:"pageSize"`

	Datasets struct {
		Permits    string `json:"permits" yaml:"permits"`
		Complaints string `json:"complaints" yaml:"complaints"`
		Schools    string `json:"schools" yaml:"schools"`
		Traffic    string `json:"traffic" yaml:"traffic"`
	} `json:"datasets" yaml:"datasets"`
}

// PermitsConfig defines demolition permit validation knobs.
type PermitsConfig struct {
	// LookbackDays bounds how far back issued permits are fetched.
	LookbackDays int `json:"lookbackDays" yaml:"lookbackDays"`

	// ComplaintRadiusMeters is how close a corroborating complaint must be.
	ComplaintRadiusMeters float64 `json:"complaintRadiusMeters" yaml:"complaintRadiusMeters"`

	// ComplaintLookbackHours bounds how recent a corroborating complaint must be.
	ComplaintLookbackHours int `json:"complaintLookbackHours" yaml:"complaintLookbackHours"`

	// ExpiryHours is the lifetime of a validated permit hazard.
	ExpiryHours int `json:"expiryHours" yaml:"expiryHours"`
}

// TrafficConfig defines congestion classification knobs.
type TrafficConfig struct {
	// FreeFlowSpeedMPH anchors the speed ratio bands.
	FreeFlowSpeedMPH float64 `json:"freeFlowSpeedMph" yaml:"freeFlowSpeedMph"`

	// MinSeverity filters out light congestion before persistence.
	MinSeverity int `json:"minSeverity" yaml:"minSeverity"`

	// ExpiryMinutes is the lifetime of a traffic hazard.
	ExpiryMinutes int `json:"expiryMinutes" yaml:"expiryMinutes"`

	// SchoolSuppressRadiusMeters drops congestion candidates near an active
	// school zone during peak windows.
	SchoolSuppressRadiusMeters float64 `json:"schoolSuppressRadiusMeters" yaml:"schoolSuppressRadiusMeters"`
}

// SchoolsConfig defines school zone hazard knobs.
type SchoolsConfig struct {
	// ZoneRadiusMeters is the default zone radius when the dataset has none.
	ZoneRadiusMeters float64 `json:"zoneRadiusMeters" yaml:"zoneRadiusMeters"`

	// ExpiryMinutes is the lifetime of a school zone hazard. Regeneration
	// during a peak window keeps refreshing it.
	ExpiryMinutes int `json:"expiryMinutes" yaml:"expiryMinutes"`
}

// AlertsConfig defines alert engine knobs.
type AlertsConfig struct {
	// BufferMeters is the corridor half-width for subscription matching.
	BufferMeters float64 `json:"bufferMeters" yaml:"bufferMeters"`

	// MinSeverity is the severity threshold applied to subscriptions that
	// never set one of their own.
	MinSeverity int `json:"minSeverity" yaml:"minSeverity"`

	// CooldownHours suppresses re-alerting the same hazard to the same user.
	CooldownHours int `json:"cooldownHours" yaml:"cooldownHours"`

	// MaxWorkers bounds concurrent subscription evaluation.
	MaxWorkers int `json:"maxWorkers" yaml:"maxWorkers"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// FirebaseConfig defines Firebase configuration for push notifications
type FirebaseConfig struct {
	ProjectID       string `json:"projectId" yaml:"projectId"`
	CredentialsPath string `json:"credentialsPath" yaml:"credentialsPath"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: POSTGRES_SSLMODE -> postgres.sslMode (not postgres.sslmode)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills in the domain knobs left unset so a minimal YAML file
// still yields a working engine.
func applyDefaults(cfg *Config) {
	if cfg.Permits == nil {
		cfg.Permits = &PermitsConfig{}
	}
	if cfg.Permits.LookbackDays <= 0 {
		cfg.Permits.LookbackDays = 365
	}
	if cfg.Permits.ComplaintRadiusMeters <= 0 {
		cfg.Permits.ComplaintRadiusMeters = 200
	}
	if cfg.Permits.ComplaintLookbackHours <= 0 {
		cfg.Permits.ComplaintLookbackHours = 48
	}
	if cfg.Permits.ExpiryHours <= 0 {
		cfg.Permits.ExpiryHours = 168
	}

	if cfg.Traffic == nil {
		cfg.Traffic = &TrafficConfig{}
	}
	if cfg.Traffic.FreeFlowSpeedMPH <= 0 {
		cfg.Traffic.FreeFlowSpeedMPH = 30
	}
	if cfg.Traffic.MinSeverity <= 0 {
		cfg.Traffic.MinSeverity = 3
	}
	if cfg.Traffic.ExpiryMinutes <= 0 {
		cfg.Traffic.ExpiryMinutes = 30
	}
	if cfg.Traffic.SchoolSuppressRadiusMeters <= 0 {
		cfg.Traffic.SchoolSuppressRadiusMeters = 200
	}

	if cfg.Schools == nil {
		cfg.Schools = &SchoolsConfig{}
	}
	if cfg.Schools.ZoneRadiusMeters <= 0 {
		cfg.Schools.ZoneRadiusMeters = 150
	}
	if cfg.Schools.ExpiryMinutes <= 0 {
		cfg.Schools.ExpiryMinutes = 30
	}

	if cfg.Alerts == nil {
		cfg.Alerts = &AlertsConfig{}
	}
	if cfg.Alerts.BufferMeters <= 0 {
		cfg.Alerts.BufferMeters = 25
	}
	if cfg.Alerts.MinSeverity <= 0 {
		cfg.Alerts.MinSeverity = 3
	}
	if cfg.Alerts.CooldownHours <= 0 {
		cfg.Alerts.CooldownHours = 4
	}
	if cfg.Alerts.MaxWorkers <= 0 {
		cfg.Alerts.MaxWorkers = 8
	}

	if cfg.Region == nil {
		cfg.Region = &RegionConfig{}
	}
	if cfg.Region.Timezone == "" {
		cfg.Region.Timezone = "America/Chicago"
	}

	if cfg.CityData != nil && cfg.CityData.PageSize <= 0 {
		cfg.CityData.PageSize = 1000
	}
	if cfg.CityData != nil && cfg.CityData.Timeout <= 0 {
		cfg.CityData.Timeout = 30 * time.Second
	}
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}
