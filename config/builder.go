package config

import (
	"fmt"

	"github.com/jpalmerr/tcup"
)

// BuildProbes converts parsed probe configuration into SDK probes.
func BuildProbes(cfg *Config) ([]tcup.Probe, error) {
	probes := make([]tcup.Probe, 0, len(cfg.Probes))
	for _, pc := range cfg.Probes {
		p, err := buildProbe(pc)
		if err != nil {
			return nil, err
		}
		probes = append(probes, p)
	}
	return probes, nil
}

// buildProbe converts a single ProbeConfig to an SDK Probe.
func buildProbe(pc ProbeConfig) (tcup.Probe, error) {
	var opts []tcup.ProbeOption

	if pc.Method != "" {
		opts = append(opts, tcup.WithMethod(pc.Method))
	}
	if pc.Config != "" {
		opts = append(opts, tcup.WithConfig(pc.Config))
	}

	extractor, err := buildExtractor(pc.Value)
	if err != nil {
		return tcup.Probe{}, fmt.Errorf("probe %q: %w", pc.Name, err)
	}
	if extractor != nil {
		opts = append(opts, tcup.WithExtractor(extractor))
	}

	if pc.Interval != 0 {
		opts = append(opts, tcup.WithInterval(pc.Interval.Duration()))
	}

	return tcup.NewProbe(pc.Name, pc.Path, opts...)
}

// buildExtractor converts ExtractorConfig to a ValueExtractor.
// Returns nil for default/empty extractors (SDK uses DefaultValueExtractor).
func buildExtractor(ec ExtractorConfig) (tcup.ValueExtractor, error) {
	switch ec.Type {
	case "", "default":
		return nil, nil
	case "json":
		return tcup.JSONValueExtractor(ec.Path), nil
	case "avg":
		return tcup.JSONAverageExtractor(ec.Path), nil
	case "regex":
		return tcup.RegexValueExtractor(ec.Pattern)
	default:
		return nil, fmt.Errorf("unknown value extractor %q", ec.Type)
	}
}

// BuildOptions converts the whole configuration into [tcup.Option] values
// for [tcup.New].
func BuildOptions(cfg *Config) ([]tcup.Option, error) {
	probes, err := BuildProbes(cfg)
	if err != nil {
		return nil, err
	}

	opts := []tcup.Option{
		tcup.WithPort(cfg.Port),
		tcup.WithPollingInterval(cfg.PollInterval.Duration()),
		tcup.WithStorage(cfg.Storage.Driver, cfg.Storage.Location()),
		tcup.WithBackend(cfg.Backend.BaseURL),
		tcup.WithProbes(probes...),
	}
	if cfg.Title != "" {
		opts = append(opts, tcup.WithTitle(cfg.Title))
	}
	if cfg.MaxConcurrency > 0 {
		opts = append(opts, tcup.WithMaxConcurrency(cfg.MaxConcurrency))
	}
	if cfg.LandingPath != "" {
		opts = append(opts, tcup.WithLandingPath(cfg.LandingPath))
	}
	if cfg.Backend.Timeout > 0 {
		opts = append(opts, tcup.WithBackendTimeout(cfg.Backend.Timeout.Duration()))
	}
	for _, u := range cfg.Users {
		opts = append(opts, tcup.WithUser(u.Username, u.PasswordHash))
	}
	return opts, nil
}
