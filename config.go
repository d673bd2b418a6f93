package productstore

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/go-arrower/productstore/mysql"
	"github.com/go-arrower/productstore/postgres"
	"github.com/go-arrower/productstore/sqlite"
)

// EnvPrefix is the prefix of all environment variables overwriting the configuration,
// e.g. PRODUCTSTORE_HTTP_PORT=8081.
const EnvPrefix = "PRODUCTSTORE"

// Config is a structure used for service configuration.
// It is intended to be mapped by viper.
type Config struct {
	OrganisationName string `mapstructure:"organisation_name"`
	ApplicationName  string `mapstructure:"application_name"`
	InstanceName     string `mapstructure:"instance_name"`

	Environment Environment `mapstructure:"environment"`
	Debug       bool        `mapstructure:"debug"`

	HTTP     HTTP            `mapstructure:"http"`
	Storage  Storage         `mapstructure:"storage"`
	Postgres postgres.Config `mapstructure:"postgres"`
	MySQL    mysql.Config    `mapstructure:"mysql"`
	SQLite   sqlite.Config   `mapstructure:"sqlite"`
	OTEL     OTEL            `mapstructure:"otel"`
	Loki     Loki            `mapstructure:"loki"`
	API      API             `mapstructure:"api"`
}

const (
	LocalEnv       Environment = "local"
	TestEnv        Environment = "test"
	DevelopmentEnv Environment = "dev"
	ProductionEnv  Environment = "prod"
)

// Environments is the list of all supported environments.
func Environments() []Environment {
	return []Environment{LocalEnv, TestEnv, DevelopmentEnv, ProductionEnv}
}

type Environment string

// Driver selects the engine products are stored in.
type Driver string

const (
	MemoryDriver   Driver = "memory"
	PostgresDriver Driver = "postgres"
	MySQLDriver    Driver = "mysql"
	SQLiteDriver   Driver = "sqlite"
)

// Drivers is the list of all supported storage drivers.
func Drivers() []Driver {
	return []Driver{MemoryDriver, PostgresDriver, MySQLDriver, SQLiteDriver}
}

type (
	HTTP struct {
		Port                  int  `json:"port"                  mapstructure:"port"`
		StatusEndpointEnabled bool `json:"statusEndpointEnabled" mapstructure:"status_endpoint_enabled"`
		StatusEndpointPort    int  `json:"statusEndpointPort"    mapstructure:"status_endpoint_port"`
	}

	Storage struct {
		Driver Driver `json:"driver" mapstructure:"driver"`
	}

	OTEL struct {
		Host     string `json:"host"     mapstructure:"host"`
		Port     int    `json:"port"     mapstructure:"port"`
		Hostname string `json:"hostname" mapstructure:"hostname"`
	}

	Loki struct {
		URL string `json:"url" mapstructure:"url"`
	}

	// API is the information published in the OpenAPI document.
	API struct {
		Title           string `mapstructure:"title"`
		Description     string `mapstructure:"description"`
		Version         string `mapstructure:"version"`
		TermsOfService  string `mapstructure:"terms_of_service"`
		License         string `mapstructure:"license"`
		LicenseURL      string `mapstructure:"license_url"`
		ExternalDocDesc string `mapstructure:"external_doc_desc"`
		ExternalDocURL  string `mapstructure:"external_doc_url"`
		ContactName     string `mapstructure:"contact_name"`
		ContactURL      string `mapstructure:"contact_url"`
		ContactEmail    string `mapstructure:"contact_email"`
	}
)

// DefaultViper returns a new viper instance with all default values
// from Config set. Every key can be overwritten by an environment variable.
func DefaultViper() *Viper {
	vip := viper.New()

	vip.SetEnvPrefix(EnvPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vip.AutomaticEnv()

	vip.SetDefault("organisation_name", "go-arrower")
	vip.SetDefault("application_name", "productstore")
	vip.SetDefault("instance_name", "")

	vip.SetDefault("environment", "local")
	vip.SetDefault("debug", false)

	vip.SetDefault("http.port", 8080)
	vip.SetDefault("http.status_endpoint_enabled", true)
	vip.SetDefault("http.status_endpoint_port", 2223)

	vip.SetDefault("storage.driver", "memory")

	vip.SetDefault("postgres.user", "productstore")
	vip.SetDefault("postgres.password", "secret")
	vip.SetDefault("postgres.database", "productstore")
	vip.SetDefault("postgres.host", "localhost")
	vip.SetDefault("postgres.port", 5432)
	vip.SetDefault("postgres.ssl_mode", "disable")
	vip.SetDefault("postgres.max_conns", 10)

	vip.SetDefault("mysql.user", "productstore")
	vip.SetDefault("mysql.password", "secret")
	vip.SetDefault("mysql.database", "productstore")
	vip.SetDefault("mysql.host", "localhost")
	vip.SetDefault("mysql.port", 3306)
	vip.SetDefault("mysql.max_conns", 10)

	vip.SetDefault("sqlite.path", "productstore.db")

	vip.SetDefault("otel.host", "localhost")
	vip.SetDefault("otel.port", 4317)
	vip.SetDefault("otel.hostname", "")

	vip.SetDefault("loki.url", "")

	vip.SetDefault("api.title", "Product Composite API")
	vip.SetDefault("api.description", "Stores products with optimistic concurrency control.")
	vip.SetDefault("api.version", "1.0.0")
	vip.SetDefault("api.terms_of_service", "")
	vip.SetDefault("api.license", "")
	vip.SetDefault("api.license_url", "")
	vip.SetDefault("api.external_doc_desc", "")
	vip.SetDefault("api.external_doc_url", "")
	vip.SetDefault("api.contact_name", "")
	vip.SetDefault("api.contact_url", "")
	vip.SetDefault("api.contact_email", "")

	return &Viper{Viper: vip}
}

var errConfigLoadFailed = errors.New("loading configuration failed")

// Viper is a wrapper around viper.Viper for configuration loading.
// The only purpose is to overwrite the Unmarshal method,
// so that custom types like secret.Secret and the enums are decoded and validated
// without the developer having to think about it when using DefaultViper.
type Viper struct {
	*viper.Viper
}

func (vip *Viper) Unmarshal(rawVal any, opts ...viper.DecoderConfigOption) error {
	opts = append([]viper.DecoderConfigOption{viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		allowedValuesHookFunc(Environments()),
		allowedValuesHookFunc(Drivers()),
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))}, opts...)

	if err := vip.Viper.Unmarshal(rawVal, opts...); err != nil {
		return fmt.Errorf("%w: could not decode configuration into struct: %v", errConfigLoadFailed, err)
	}

	return nil
}

// allowedValuesHookFunc rejects all values of the string enum T, that are not listed in allowed.
func allowedValuesHookFunc[T ~string](allowed []T) mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(T("")) {
			return data, nil
		}

		str, _ := data.(string)
		if slices.Contains(allowed, T(str)) {
			return data, nil
		}

		values := make([]string, 0, len(allowed))
		for _, v := range allowed {
			values = append(values, string(v))
		}

		return data, fmt.Errorf("value %q is not allowed, use one of: %s", str, strings.Join(values, ", ")) //nolint:err113 // accept dynamic error
	}
}
