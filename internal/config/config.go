package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// placeholderKind tags entries whose config file omits a kind.
const placeholderKind = "string"

// Sentinel errors returned by Resolve. Callers map both to a client error.
var (
	ErrMissingChannel  = errors.New("config: missing channel parameter")
	ErrChannelNotFound = errors.New("config: channel not found")
)

// Entry is one configured delivery destination.
type Entry struct {
	// URL is the destination webhook endpoint. Required.
	URL string `yaml:"url" json:"url"`

	// Kind is a free-form destination-type tag ("teams", "slack", ...).
	Kind string `yaml:"kind" json:"kind"`
}

// Config is the channel→destination mapping. The mapping never changes
// after Load returns, so a single instance is shared across all concurrent
// request handlers with no locking.
type Config struct {
	channels map[string]Entry
}

// Load reads and parses the channel config file at path: a YAML mapping from
// channel name to an entry with a required url and an optional kind. Any
// read or parse failure is returned to the caller, which treats it as fatal.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	channels := make(map[string]Entry)
	if err := yaml.Unmarshal(data, &channels); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	for name, e := range channels {
		if e.URL == "" {
			return nil, fmt.Errorf("config: channel %q has no url", name)
		}
		if e.Kind == "" {
			e.Kind = placeholderKind
			channels[name] = e
		}
	}

	return &Config{channels: channels}, nil
}

// Resolve returns the destination URL for the channel named in query.
// It returns ErrMissingChannel when the query carries no channel key and
// ErrChannelNotFound when the named channel is not configured. The returned
// string is a copy; callers cannot reach the shared mapping through it.
func (c *Config) Resolve(query url.Values) (string, error) {
	name := query.Get("channel")
	if name == "" {
		return "", ErrMissingChannel
	}
	e, ok := c.channels[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrChannelNotFound, name)
	}
	return e.URL, nil
}

// Len returns the number of configured channels.
func (c *Config) Len() int { return len(c.channels) }

// Names returns the configured channel names, sorted.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.channels))
	for name := range c.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Redacted returns a copy of the mapping with each URL reduced to its scheme
// and host. Teams webhook URLs carry the shared secret in the path, so the
// diagnostic /config endpoint must not expose full URLs.
func (c *Config) Redacted() map[string]Entry {
	out := make(map[string]Entry, len(c.channels))
	for name, e := range c.channels {
		out[name] = Entry{URL: redactURL(e.URL), Kind: e.Kind}
	}
	return out
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "<redacted>"
	}
	return u.Scheme + "://" + u.Host
}
