package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks struct tags and cross-field rules. Field errors are
// reported as "<namespace>: failed '<tag>' (param)" joined by "; ".
func Validate(cfg *Config) error {
	if err := getValidator().Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msg := fmt.Sprintf("%s: failed '%s'", fe.Namespace(), fe.Tag())
			if fe.Param() != "" {
				msg += fmt.Sprintf(" (%s)", fe.Param())
			}
			msgs = append(msgs, msg)
		}
		return errors.New(strings.Join(msgs, "; "))
	}

	if cfg.Database.MinConns > cfg.Database.MaxConns {
		return fmt.Errorf("database.min_conns (%d) exceeds database.max_conns (%d)",
			cfg.Database.MinConns, cfg.Database.MaxConns)
	}

	return nil
}
