// internal/config/config.go
//
// Workspace configuration and project path resolution. There is no hidden
// process-wide state: callers construct a Config and pass it to every ledger
// operation. The workspace root comes from, in order, the AGENTLOG_WORKSPACE
// environment variable, an agentlog.yaml file in the working directory, or
// the ./projects default.

package config

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the optional workspace config looked up in the
	// working directory.
	ConfigFileName = "agentlog.yaml"

	// WorkspaceEnv overrides any file-based workspace setting.
	WorkspaceEnv = "AGENTLOG_WORKSPACE"

	defaultWorkspace = "projects"

	agentLogDirName     = "agent_log"
	agentContextDirName = "agent_context"
)

// activeAgentField is the project index line the active collaborator identity
// is read from. This package consumes the value as plain text; it does not
// own the index document.
const activeAgentField = "**Active Agent:**"

// WorkspaceFile models agentlog.yaml.
type WorkspaceFile struct {
	Workspace string `yaml:"workspace"`
}

// Config holds the resolved workspace root for one process.
type Config struct {
	WorkspaceRoot string
}

// New builds a Config rooted at an explicit workspace directory.
func New(workspaceRoot string) *Config {
	return &Config{WorkspaceRoot: filepath.Clean(workspaceRoot)}
}

// Load resolves the workspace root from the environment, the config file, or
// the default, in that order.
func Load() (*Config, error) {
	if ws := strings.TrimSpace(os.Getenv(WorkspaceEnv)); ws != "" {
		return New(ws), nil
	}
	data, err := os.ReadFile(ConfigFileName)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(defaultWorkspace), nil
		}
		return nil, fmt.Errorf("config: read %s: %w", ConfigFileName, err)
	}
	var parsed WorkspaceFile
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", ConfigFileName, err)
	}
	if strings.TrimSpace(parsed.Workspace) == "" {
		return New(defaultWorkspace), nil
	}
	return New(parsed.Workspace), nil
}

// ProjectDir returns the root directory of one project.
func (c *Config) ProjectDir(project string) string {
	return filepath.Join(c.WorkspaceRoot, project)
}

// AgentLogDir returns the project's log directory (stores and log documents).
func (c *Config) AgentLogDir(project string) string {
	return filepath.Join(c.ProjectDir(project), agentLogDirName)
}

// AgentContextDir returns the project's per-agent context directory.
func (c *Config) AgentContextDir(project string) string {
	return filepath.Join(c.ProjectDir(project), agentContextDirName)
}

// ExchangeLogPath returns the regenerable exchange log document.
func (c *Config) ExchangeLogPath(project string) string {
	return filepath.Join(c.AgentLogDir(project), "exchange_log.md")
}

// ExchangeStorePath returns the exchange log's structured store.
func (c *Config) ExchangeStorePath(project string) string {
	return filepath.Join(c.AgentLogDir(project), "exchange_log.yaml")
}

// ContextLogPath returns the archive context log document.
func (c *Config) ContextLogPath(project string) string {
	return filepath.Join(c.AgentLogDir(project), "context_log.md")
}

// ContextStorePath returns the context log's structured store.
func (c *Config) ContextStorePath(project string) string {
	return filepath.Join(c.AgentLogDir(project), "context_log.yaml")
}

// ProjectIndexPath returns the project index document.
func (c *Config) ProjectIndexPath(project string) string {
	return filepath.Join(c.ProjectDir(project), "project_index.md")
}

// ActiveSessionPath returns the current-session document.
func (c *Config) ActiveSessionPath(project string) string {
	return filepath.Join(c.AgentContextDir(project), "active_session.md")
}

// AgentContextPath returns an agent's local context document.
func (c *Config) AgentContextPath(project, agent string) string {
	return filepath.Join(c.AgentContextDir(project), agent+".md")
}

// ResolveLogPaths maps a log file name to its markdown and store paths. Names
// carrying a path separator resolve relative to the project directory; bare
// names resolve under agent_log/. The store path mirrors the markdown name
// with a .yaml extension.
func (c *Config) ResolveLogPaths(project, logFile string) (mdPath, storePath string) {
	name := logFile
	if !strings.HasSuffix(name, ".md") {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ".md"
	}
	if strings.ContainsRune(logFile, os.PathSeparator) || strings.ContainsRune(logFile, '/') {
		mdPath = filepath.Join(c.ProjectDir(project), name)
	} else {
		mdPath = filepath.Join(c.AgentLogDir(project), name)
	}
	storePath = strings.TrimSuffix(mdPath, ".md") + ".yaml"
	return mdPath, storePath
}

// ActiveAgent reads the active collaborator identity from the project index.
// Returns "Unknown" when the index or the field is absent.
func ActiveAgent(indexPath string) string {
	f, err := os.Open(indexPath)
	if err != nil {
		return "Unknown"
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.Index(line, activeAgentField); i >= 0 {
			if name := strings.TrimSpace(line[i+len(activeAgentField):]); name != "" {
				return name
			}
		}
	}
	return "Unknown"
}
