package main

import (
	"encoding"
	"encoding/json"
	"time"
)

type config struct {
	Store  storeConfig `json:"store" envPrefix:"STORE_"`
	Cache  cacheConfig `json:"cache" envPrefix:"CACHE_"`
	Filter string      `json:"filter" env:"FILTER,expand"`
	Mount  mountConfig `json:"mount" envPrefix:"MOUNT_"`
}

type storeConfig struct {
	Type    string   `json:"type" env:"TYPE,expand" validate:"required"`
	Options *rawJSON `json:"options" env:"OPTIONS,expand"`
}

type cacheConfig struct {
	Backend string   `json:"backend" env:"BACKEND,expand" validate:"oneof=memory sqlite"`
	TTL     duration `json:"ttl" env:"TTL"`
	Path    string   `json:"path" env:"PATH,expand" validate:"required_if=Backend sqlite"`
}

type mountConfig struct {
	StatProbe  bool `json:"statProbe" env:"STAT_PROBE"`
	AllowOther bool `json:"allowOther" env:"ALLOW_OTHER"`
}

type duration time.Duration

// UnmarshalJSON implements [json.Unmarshaler].
func (d *duration) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	return d.UnmarshalText([]byte(raw))
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}

	*d = duration(parsed)

	return nil
}

type rawJSON struct {
	Value any
}

// UnmarshalJSON implements [json.Unmarshaler].
func (j *rawJSON) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &j.Value); err != nil {
		return err
	}

	return nil
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (j *rawJSON) UnmarshalText(text []byte) error {
	if err := json.Unmarshal(text, &j.Value); err != nil {
		return err
	}

	return nil
}

var _ encoding.TextUnmarshaler = &rawJSON{}
var _ json.Unmarshaler = &rawJSON{}
var _ encoding.TextUnmarshaler = (*duration)(nil)
var _ json.Unmarshaler = (*duration)(nil)
