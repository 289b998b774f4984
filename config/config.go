// Package config loads the database connection file cmd/mpp-server
// points at via --dbconfigfilepath. Grounded on mpp::data::DBInfo: a
// flat "key=value" file, one pair per line, requiring exactly the four
// keys user/password/host/db, each one a fatal error if absent.
package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// DBConfig holds the four fields DBInfo::DBInfo parses out of the
// config file. All four are "required" per validator so a config
// missing any of them fails the same way the original's vm.count()
// checks did, just collected into one error instead of the first miss.
type DBConfig struct {
	User     string `validate:"required"`
	Password string `validate:"required"`
	Host     string `validate:"required"`
	DB       string `validate:"required"`
}

var validate = validator.New()

// Load reads path as a sequence of "key=value" lines (blank lines and
// lines starting with "#" are skipped) and returns the DBConfig built
// from the user/password/host/db keys found in it.
func Load(path string) (*DBConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: opening %s: %w", path, err)
	}
	defer f.Close()

	values := make(map[string]string, 4)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("config: %s:%d: expected key=value, got %q", path, lineNo, line)
		}
		values[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg := &DBConfig{
		User:     values["user"],
		Password: values["password"],
		Host:     values["host"],
		DB:       values["db"],
	}
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: %s is missing required DB info: %w", path, err)
	}
	return cfg, nil
}

// DSN renders the config as a go-sql-driver/mysql data source name
// suitable for sql.Open("mysql", ...).
func (c *DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&charset=utf8mb4", c.User, c.Password, c.Host, c.DB)
}
