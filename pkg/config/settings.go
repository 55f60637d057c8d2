package config

import (
	"fmt"
	"math"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/marmos91/newsletter/internal/bytesize"
	"github.com/marmos91/newsletter/pkg/domain"
)

// ApplicationSettings configures the HTTP listener.
type ApplicationSettings struct {
	Host    string `mapstructure:"host" validate:"required" yaml:"host"`
	Port    int    `mapstructure:"port" validate:"min=0,max=65535" yaml:"port"`
	BaseURL string `mapstructure:"base_url" validate:"required,url" yaml:"base_url"`

	// ShutdownTimeout bounds the graceful drain on SIGINT/SIGTERM
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0" yaml:"shutdown_timeout"`

	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gte=0" yaml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0" yaml:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" validate:"gte=0" yaml:"idle_timeout"`

	// MaxBodySize caps request bodies, e.g. "64KiB"
	MaxBodySize bytesize.ByteSize `mapstructure:"max_body_size" yaml:"max_body_size"`
}

// Address returns host:port for net.Listen.
func (s ApplicationSettings) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseSettings configures the PostgreSQL connection and pool.
type DatabaseSettings struct {
	Host         string `mapstructure:"host" validate:"required" yaml:"host"`
	Port         int    `mapstructure:"port" validate:"required,min=1,max=65535" yaml:"port"`
	Username     string `mapstructure:"username" validate:"required" yaml:"username"`
	Password     Secret `mapstructure:"password" yaml:"password"`
	DatabaseName string `mapstructure:"database_name" validate:"required" yaml:"database_name"`
	RequireSSL   bool   `mapstructure:"require_ssl" yaml:"require_ssl"`

	// Pool sizing
	MaxConns          int32         `mapstructure:"max_conns" validate:"gte=0" yaml:"max_conns"`
	MinConns          int32         `mapstructure:"min_conns" validate:"gte=0" yaml:"min_conns"`
	MaxConnLifetime   time.Duration `mapstructure:"max_conn_lifetime" yaml:"max_conn_lifetime"`
	MaxConnIdleTime   time.Duration `mapstructure:"max_conn_idle_time" yaml:"max_conn_idle_time"`
	HealthCheckPeriod time.Duration `mapstructure:"health_check_period" yaml:"health_check_period"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout" yaml:"query_timeout"`
}

// ConnectionStringWithoutDB addresses the server without selecting a
// database. The server then uses the role's default database, which is
// what CREATE DATABASE and DROP DATABASE need.
func (s DatabaseSettings) ConnectionStringWithoutDB() string {
	return s.url("").String()
}

// ConnectionString addresses DatabaseName on the server.
func (s DatabaseSettings) ConnectionString() string {
	return s.url(s.DatabaseName).String()
}

// WithDatabase returns a copy addressing name.
func (s DatabaseSettings) WithDatabase(name string) DatabaseSettings {
	s.DatabaseName = name
	return s
}

func (s DatabaseSettings) url(database string) *url.URL {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(s.Username, s.Password.Expose()),
		Host:   net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
	}
	if database != "" {
		u.Path = "/" + database
	}

	q := url.Values{}
	if s.RequireSSL {
		q.Set("sslmode", "require")
	} else {
		q.Set("sslmode", "prefer")
	}
	// connect_timeout is whole seconds and 0 means no limit, so round up.
	if s.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(math.Ceil(s.ConnectTimeout.Seconds()))))
	}
	u.RawQuery = q.Encode()
	return u
}

// EmailClientSettings configures the outbound email API.
type EmailClientSettings struct {
	BaseURL            string        `mapstructure:"base_url" validate:"required,url" yaml:"base_url"`
	SenderEmail        string        `mapstructure:"sender_email" validate:"required" yaml:"sender_email"`
	AuthorizationToken Secret        `mapstructure:"authorization_token" yaml:"authorization_token"`
	Timeout            time.Duration `mapstructure:"timeout" validate:"gt=0" yaml:"timeout"`
}

// Sender parses SenderEmail.
func (s EmailClientSettings) Sender() (domain.SubscriberEmail, error) {
	sender, err := domain.ParseSubscriberEmail(s.SenderEmail)
	if err != nil {
		return "", fmt.Errorf("sender_email %q: %w", s.SenderEmail, err)
	}
	return sender, nil
}
