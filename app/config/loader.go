package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var configExtensions = []string{".yml", ".yaml", ".json"}

// Loader reads organization and site configuration from a directory.
type Loader struct {
	configDir string
}

func NewLoader(configDir string) *Loader {
	return &Loader{configDir: configDir}
}

// Load reads organizations and sites. A missing sites file yields no sites;
// a missing organizations file is an error.
func (l *Loader) Load() (*Config, error) {
	orgs, err := l.LoadOrganizations()
	if err != nil {
		return nil, err
	}
	sites, err := l.LoadSites()
	if err != nil {
		return nil, err
	}
	return &Config{Organizations: orgs, Sites: sites}, nil
}

func (l *Loader) LoadOrganizations() (*Organizations, error) {
	path, err := l.find("organizations")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("organizations config not found in %s", l.configDir)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var orgs *Organizations
	if filepath.Ext(path) == ".json" {
		orgs, err = parseOrganizationsJSON(data)
	} else {
		orgs, err = parseOrganizationsYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for _, org := range orgs.All() {
		if err := validate.Struct(org); err != nil {
			return nil, fmt.Errorf("invalid organization %q in %s: %w", org.Key, path, err)
		}
	}

	slog.Debug("Organizations loaded", "file", path, "count", orgs.Len())
	return orgs, nil
}

func (l *Loader) LoadSites() ([]Site, error) {
	path, err := l.find("sites")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var sites []Site
	if filepath.Ext(path) == ".json" {
		err = json.Unmarshal(data, &sites)
	} else {
		err = yaml.Unmarshal(data, &sites)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for i := range sites {
		if sites[i].Type == "" {
			sites[i].Type = SiteTypePages
		}
		if sites[i].Adapter == "" {
			sites[i].Adapter = sites[i].OrganizationKey
			if sites[i].Type == SiteTypeFeeds {
				sites[i].Adapter = FeedsAdapter
			}
		}
		if err := validate.Struct(&sites[i]); err != nil {
			return nil, fmt.Errorf("invalid site %q in %s: %w", sites[i].Site, path, err)
		}
	}

	slog.Debug("Sites loaded", "file", path, "count", len(sites))
	return sites, nil
}

func (l *Loader) find(base string) (string, error) {
	for _, ext := range configExtensions {
		path := filepath.Join(l.configDir, base+ext)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
	}
	return "", nil
}

func parseOrganizationsYAML(data []byte) (*Organizations, error) {
	orgs := NewOrganizations()

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return orgs, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a mapping of organization keys")
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		org := &Organization{Key: root.Content[i].Value}
		if err := root.Content[i+1].Decode(org); err != nil {
			return nil, fmt.Errorf("organization %q: %w", org.Key, err)
		}
		orgs.add(org)
	}
	return orgs, nil
}

func parseOrganizationsJSON(data []byte) (*Organizations, error) {
	orgs := NewOrganizations()

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return orgs, nil
	}
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected an object of organization keys")
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		org := &Organization{Key: key}
		if err := dec.Decode(org); err != nil {
			return nil, fmt.Errorf("organization %q: %w", key, err)
		}
		orgs.add(org)
	}
	return orgs, nil
}
