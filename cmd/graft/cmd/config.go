// Copyright © 2020 Skyline Tools

package cmd

import (
	"io/ioutil"
	"os"
	"path"
	"strings"

	"github.com/skylinetools/graft/pkg/core"
	"github.com/skylinetools/graft/pkg/glogger"
	"github.com/skylinetools/graft/pkg/interact"
	"github.com/skylinetools/graft/pkg/model"
	"github.com/skylinetools/graft/pkg/props"
	"github.com/skylinetools/graft/pkg/registry"
	"github.com/skylinetools/graft/pkg/scm/localscm"
	"github.com/skylinetools/graft/pkg/workspace"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// CLIConfig describes the CLI configuration.
type CLIConfig struct {
	// bug in viper? Need to keep names of fields the same as the serialized names..
	Registry   string `json:"registry" yaml:"registry"`     // Path to the module registry configuration
	Store      string `json:"store" yaml:"store"`           // Root directory of the local version store
	Workspaces string `json:"workspaces" yaml:"workspaces"` // Root directory for working directories
	Properties string `json:"properties" yaml:"properties"` // File persisting remembered choices
	LogLevel   string `json:"loglevel" yaml:"loglevel"`     // Default logging level
}

func newConfig() (*CLIConfig, error) {
	var config CLIConfig
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *CLIConfig) setGraftParams(flags *flagsT) {
	if flags.core.registry == "" {
		flags.core.registry = c.Registry
	}
	if flags.core.store == "" {
		flags.core.store = c.Store
	}
	if flags.core.workspaces == "" {
		flags.core.workspaces = c.Workspaces
	}
	if flags.core.properties == "" {
		flags.core.properties = c.Properties
	}
	if c.LogLevel != "" && flags.root.logLevel == glogger.LogLevelInfo {
		flags.root.logLevel = c.LogLevel
	}
}

// cliEstate bundles everything a command operates on: the module catalog, its
// version store backend, workspaces, persisted properties and the prompting
// boundary.
type cliEstate struct {
	registry   *registry.Registry
	backend    *localscm.SCM
	workspaces *workspace.Manager
	properties *props.Store
	interactor interact.Interactor
	logger     *zap.Logger
}

func graftHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".graft"
	}
	return path.Join(home, ".graft")
}

// newEstate wires the estate from flags and configuration.
func newEstate(flags *flagsT) (*cliEstate, error) {
	logger, err := glogger.GetLogger(flags.root.logLevel)
	if err != nil {
		return nil, err
	}

	store := flags.core.store
	if store == "" {
		store = path.Join(graftHome(), "store")
	}
	workspaceRoot := flags.core.workspaces
	if workspaceRoot == "" {
		workspaceRoot = path.Join(graftHome(), "workspaces")
	}
	propertiesFile := flags.core.properties
	if propertiesFile == "" {
		propertiesFile = path.Join(graftHome(), "properties.yaml")
	}
	registryFile := flags.core.registry
	if registryFile == "" {
		registryFile = path.Join(graftHome(), "registry.yaml")
	}

	fs := afero.NewOsFs()
	backend := localscm.New(
		localscm.MetaFs(afero.NewBasePathFs(fs, store)),
		localscm.WorkFs(fs),
		localscm.SystemRoot(path.Join(store, "system")),
		localscm.Logger(logger),
	)

	buffer, err := ioutil.ReadFile(registryFile)
	if err != nil {
		return nil, err
	}
	cfg, err := registry.ParseConfig(buffer)
	if err != nil {
		return nil, err
	}
	r := registry.New(cfg,
		registry.SCMBackend(backend.Handler),
		registry.SourceFs(fs),
		registry.Logger(logger),
	)

	properties, err := props.New(props.Fs(fs), props.File(propertiesFile))
	if err != nil {
		return nil, err
	}

	var interactor interact.Interactor
	if flags.root.noInput {
		interactor = interact.NewNoInput(interact.Remembered(properties))
	} else {
		interactor = interact.NewTerminal(interact.WithMemory(properties))
	}

	return &cliEstate{
		registry:   r,
		backend:    backend,
		workspaces: workspace.New(workspace.Fs(fs), workspace.Root(workspaceRoot), workspace.Logger(logger)),
		properties: properties,
		interactor: interactor,
		logger:     logger,
	}, nil
}

// rootMatcher builds the path matcher from the attribute flag, when set.
func (e *cliEstate) rootMatcher(cmd *cobra.Command, flags *flagsT) core.PathMatcher {
	if flags.refs.attribute == "" {
		return core.MatchAll()
	}
	name, value, found := strings.Cut(flags.refs.attribute, "=")
	if !found {
		wrapFatalln("invalid --attribute value, want name=value: "+flags.refs.attribute, nil)
		return nil
	}
	lookup := core.SCMAttributeLookup(cmd.Context(), e.registry, e.logger)
	return core.MatchVersionAttribute(lookup, name, value)
}

// parseRoots parses every positional argument as <module-path>@<version>.
func parseRoots(args []string) ([]model.ModuleVersion, error) {
	roots := make([]model.ModuleVersion, 0, len(args))
	for _, arg := range args {
		mv, err := model.ParseModuleVersion(arg)
		if err != nil {
			return nil, err
		}
		roots = append(roots, mv)
	}
	return roots, nil
}
