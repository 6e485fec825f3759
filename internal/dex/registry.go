package dex

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// Registry maps adapter names to adapters
type Registry map[string]Dex

// Constructor builds an adapter from its protocol record
type Constructor func(cfg ProtocolConfig, opts Options) (Dex, error)

var constructors = map[string]Constructor{
	MuesliSwapIdentifier: func(cfg ProtocolConfig, opts Options) (Dex, error) {
		return NewMuesliSwap(cfg, opts)
	},
}

// NewRegistry indexes the given adapters by name
func NewRegistry(dexs ...Dex) Registry {
	r := make(Registry, len(dexs))
	for _, d := range dexs {
		r[d.Name()] = d
	}
	return r
}

// BuildRegistry creates an adapter for every protocol record with a known implementation.
// optsFor supplies per-protocol options such as the REST client.
func BuildRegistry(protocols Protocols, optsFor func(cfg ProtocolConfig) Options, logger *logrus.Logger) (Registry, error) {
	if logger == nil {
		logger = logrus.New()
	}

	r := Registry{}
	for _, name := range protocols.Names() {
		cfg := protocols[name]
		build, ok := constructors[name]
		if !ok {
			logger.WithField("dex", name).Warn("no adapter for protocol record, skipping")
			continue
		}

		opts := Options{Logger: logger}
		if optsFor != nil {
			opts = optsFor(cfg)
		}
		d, err := build(cfg, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s adapter: %w", name, err)
		}
		r[name] = d
	}
	return r, nil
}

// Names returns the registered names in sorted order
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
