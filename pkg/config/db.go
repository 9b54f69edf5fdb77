package config

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

const sqliteFallbackDSN = "file:packfinderz-payouts.db?cache=shared"

// DBConfig takes a full DSN, or the discrete PACKFINDERZ_DB_* parts when no
// DSN is set.
type DBConfig struct {
	DSN    string `envconfig:"PACKFINDERZ_DB_DSN"`
	Driver string `envconfig:"PACKFINDERZ_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"PACKFINDERZ_DB_HOST"`
	Port     int    `envconfig:"PACKFINDERZ_DB_PORT" default:"5432"`
	User     string `envconfig:"PACKFINDERZ_DB_USER"`
	Password string `envconfig:"PACKFINDERZ_DB_PASSWORD"`
	Name     string `envconfig:"PACKFINDERZ_DB_NAME"`
	SSLMode  string `envconfig:"PACKFINDERZ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PACKFINDERZ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PACKFINDERZ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PACKFINDERZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PACKFINDERZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	switch {
	case db.DSN != "":
		return nil
	case useSQLite:
		db.DSN = sqliteFallbackDSN
		return nil
	}

	var missing []string
	for env, value := range map[string]string{EnvDBHost: db.Host, EnvDBUser: db.User, EnvDBName: db.Name} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}
	db.DSN = db.partsDSN()
	return nil
}

func (db DBConfig) partsDSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.User(db.User),
		Host:   db.Host + ":" + strconv.Itoa(db.Port),
		Path:   db.Name,
	}
	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	}
	if db.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {db.SSLMode}}.Encode()
	}
	return u.String()
}
