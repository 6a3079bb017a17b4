package deployment

import (
	"errors"
	"fmt"

	"github.com/google/go-containerregistry/pkg/name"
	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

var ErrInvalidCompose = errors.New("invalid compose file")
var ErrInvalidConfigIni = errors.New("invalid config.ini")

type composeService struct {
	Image string `yaml:"image"`
}

type composeFile struct {
	Services map[string]composeService `yaml:"services"`
}

// ValidateCompose checks a rendered Compose configuration: it must be
// YAML, declare at least one service, and every image reference must
// parse as a container image name.
func ValidateCompose(buf []byte) error {
	compose := composeFile{}
	if err := yaml.Unmarshal(buf, &compose); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidCompose, err)
	}
	if len(compose.Services) == 0 {
		return fmt.Errorf("%w: no services", ErrInvalidCompose)
	}

	for service, spec := range compose.Services {
		if spec.Image == "" {
			// built in place, not pulled
			continue
		}
		if _, err := name.ParseReference(spec.Image); err != nil {
			return fmt.Errorf(
				"%w: service %s: bad image %q: %s",
				ErrInvalidCompose, service, spec.Image, err,
			)
		}
	}
	return nil
}

// ValidateConfigIni checks a rendered config.ini: it must parse as INI
// and carry the [database] and [server] sections the services load.
func ValidateConfigIni(buf []byte) error {
	file, err := ini.Load(buf)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfigIni, err)
	}
	for _, section := range []string{"database", "server"} {
		if _, err := file.GetSection(section); err != nil {
			return fmt.Errorf("%w: no [%s] section", ErrInvalidConfigIni, section)
		}
	}
	return nil
}
