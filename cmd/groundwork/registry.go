package main

import (
	"io"

	"github.com/groundworklabs/groundwork/internal/logger"
	"github.com/groundworklabs/groundwork/internal/plugin"
	commandplugin "github.com/groundworklabs/groundwork/internal/plugins/command"
	"github.com/groundworklabs/groundwork/internal/plugins/downloadplugin"
	"github.com/groundworklabs/groundwork/internal/plugins/lineinfileplugin"
	"github.com/groundworklabs/groundwork/internal/plugins/packageplugin"
	"github.com/groundworklabs/groundwork/internal/plugins/repoplugin"
)

// buildRegistry wires every built-in step plugin. Plugins that run external
// commands stream their output to sink.
func buildRegistry(log *logger.Logger, sink io.Writer) (*plugin.Registry, error) {
	registry := plugin.NewRegistry(log)

	plugins := []plugin.Plugin{
		packageplugin.New(sink),
		repoplugin.New(),
		commandplugin.New(sink),
		downloadplugin.New(),
		lineinfileplugin.New(),
	}

	for _, p := range plugins {
		if err := registry.Register(p); err != nil {
			return nil, err
		}
	}

	return registry, nil
}
