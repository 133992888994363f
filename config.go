package meili

import (
	"errors"
	"fmt"
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// APIKeyHeader carries the API key on every request when one is configured.
const APIKeyHeader = "X-Meili-API-Key"

// Config is the connection configuration of a Client.
type Config struct {
	// Host is the base URL of the server, e.g. "http://127.0.0.1:7700".
	Host string `json:"host" yaml:"host"`
	// APIKey is optional. When empty no key header is sent.
	APIKey string `json:"apiKey,omitempty" yaml:"api_key"`
}

// Validate checks that Host is an absolute http or https URL.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Host, validation.Required, validation.By(httpURL)),
	)
	if err != nil {
		return fmt.Errorf("meili: invalid config: %w", err)
	}
	return nil
}

func httpURL(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil {
		return errors.New("must be a valid URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must use http or https scheme")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}
