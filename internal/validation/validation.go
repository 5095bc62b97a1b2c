package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

const dateOnly = "2006-01-02"

// ParseDueDate accepts an RFC3339 timestamp or a YYYY-MM-DD date (midnight UTC).
// A blank input yields nil.
func ParseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	if t, err := time.Parse(dateOnly, raw); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("fecha inválida %q: use RFC3339 o YYYY-MM-DD", raw)
}

func dueDate(fl validator.FieldLevel) bool {
	_, err := ParseDueDate(fl.Field().String())
	return err == nil
}

// Register installs the custom binding rules on gin's validator engine.
func Register() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("duedate", dueDate); err != nil {
		return fmt.Errorf("register duedate rule: %w", err)
	}
	log.Debug().Msg("Validation: custom rules registered")
	return nil
}

// Messages flattens validator errors into one readable line per field.
func Messages(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			out = append(out, fmt.Sprintf("%s: %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		out = append(out, fmt.Sprintf("%s: %s", fe.Field(), fe.Tag()))
	}
	return out
}
