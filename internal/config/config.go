// Package config loads model settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"trafficcast/internal/domain"
	"trafficcast/internal/forecast"
)

// File mirrors the TOML layout:
//
//	[model]
//	p = 1
//	d = 1
//	q = 1
//	horizon = 5
//	step = "1m"
//	step_mode = "fixed"
//	confidence = 0.95
type File struct {
	Model ModelSection `toml:"model"`
}

// ModelSection holds optional overrides; zero values keep the defaults.
type ModelSection struct {
	P          *int    `toml:"p"`
	D          *int    `toml:"d"`
	Q          *int    `toml:"q"`
	Horizon    int     `toml:"horizon"`
	Step       string  `toml:"step"`
	StepMode   string  `toml:"step_mode"`
	Confidence float64 `toml:"confidence"`
}

// LoadModel reads path and applies it on top of forecast.DefaultOptions. An
// empty path returns the defaults.
func LoadModel(path string) (forecast.Options, error) {
	opts := forecast.DefaultOptions()
	if path == "" {
		return opts, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return opts, fmt.Errorf("config file not found: %s", path)
		}
		return opts, err
	}
	var f File
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return opts, fmt.Errorf("parse config file: %w", err)
	}
	return f.Model.Apply(opts)
}

// Apply overlays the section on opts and validates the result.
func (m ModelSection) Apply(opts forecast.Options) (forecast.Options, error) {
	if m.P != nil {
		opts.Order.P = *m.P
	}
	if m.D != nil {
		opts.Order.D = *m.D
	}
	if m.Q != nil {
		opts.Order.Q = *m.Q
	}
	if m.Horizon > 0 {
		opts.Horizon = m.Horizon
	}
	if m.Step != "" {
		d, err := time.ParseDuration(m.Step)
		if err != nil {
			return opts, fmt.Errorf("parse model.step: %w", err)
		}
		opts.Step = d
	}
	if m.StepMode != "" {
		opts.StepMode = forecast.StepMode(m.StepMode)
	}
	if m.Confidence > 0 {
		opts.Confidence = m.Confidence
	}
	if err := opts.Validate(); err != nil {
		var fe *domain.FitError
		if errors.As(err, &fe) {
			return opts, fmt.Errorf("invalid model config: %s", fe.Msg)
		}
		return opts, err
	}
	return opts, nil
}
