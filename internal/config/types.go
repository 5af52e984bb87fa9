package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/docker/go-connections/nat"

	"github.com/lifeos-app/shell/internal/supervisor"
)

// Default configuration values.
const (
	DefaultAPIAddr     = "127.0.0.1:52710"
	DefaultTooltip     = "LifeOS"
	DefaultOpenLabel   = "Open LifeOS"
	DefaultBriefLabel  = "Daily Brief"
	DefaultQuitLabel   = "Quit"
	DefaultBriefPath   = "/brief"
	DefaultNotifyApp   = "LifeOS"
	defaultFrontendFmt = "http://127.0.0.1:%d"
)

// Shell mirrors the shell.yaml document structure.
type Shell struct {
	Backend       BackendSpec       `yaml:"backend"`
	Tray          TraySpec          `yaml:"tray"`
	Notifications NotificationsSpec `yaml:"notifications"`
	API           APISpec           `yaml:"api"`
}

// BackendSpec describes the supervised backend service.
type BackendSpec struct {
	Mode        string            `yaml:"mode"`
	Command     []string          `yaml:"command"`
	ProjectRoot string            `yaml:"projectRoot"`
	Workdir     string            `yaml:"workdir"`
	Env         map[string]string `yaml:"env"`
	EnvFromFile string            `yaml:"envFromFile"`
	Port        int               `yaml:"port"`
	Image       string            `yaml:"image"`
	Ports       []string          `yaml:"ports"`
}

// TraySpec configures the system tray menu.
type TraySpec struct {
	Enabled     *bool  `yaml:"enabled"`
	Tooltip     string `yaml:"tooltip"`
	OpenLabel   string `yaml:"openLabel"`
	BriefLabel  string `yaml:"briefLabel"`
	QuitLabel   string `yaml:"quitLabel"`
	FrontendURL string `yaml:"frontendUrl"`
	BriefPath   string `yaml:"briefPath"`
}

// NotificationsSpec configures system notification delivery.
type NotificationsSpec struct {
	Enabled *bool  `yaml:"enabled"`
	AppName string `yaml:"appName"`
}

// APISpec configures the local control API.
type APISpec struct {
	Addr string `yaml:"addr"`
}

// TrayEnabled reports whether the tray should be shown. Defaults to true.
func (t TraySpec) TrayEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// NotificationsEnabled reports whether notifications are delivered to the
// operating system. Defaults to true.
func (n NotificationsSpec) NotificationsEnabled() bool {
	return n.Enabled == nil || *n.Enabled
}

// ApplyDefaults fills unset fields with their defaults.
func (s *Shell) ApplyDefaults() {
	if s.Backend.Mode == "" {
		s.Backend.Mode = string(supervisor.ModeProduction)
	} else {
		s.Backend.Mode = strings.ToLower(strings.TrimSpace(s.Backend.Mode))
	}
	if s.Backend.Port == 0 {
		s.Backend.Port = supervisor.DefaultBackendPort
	}
	if s.Tray.Tooltip == "" {
		s.Tray.Tooltip = DefaultTooltip
	}
	if s.Tray.OpenLabel == "" {
		s.Tray.OpenLabel = DefaultOpenLabel
	}
	if s.Tray.BriefLabel == "" {
		s.Tray.BriefLabel = DefaultBriefLabel
	}
	if s.Tray.QuitLabel == "" {
		s.Tray.QuitLabel = DefaultQuitLabel
	}
	if s.Tray.FrontendURL == "" {
		s.Tray.FrontendURL = fmt.Sprintf(defaultFrontendFmt, s.Backend.Port)
	}
	if s.Tray.BriefPath == "" {
		s.Tray.BriefPath = DefaultBriefPath
	}
	if s.Notifications.AppName == "" {
		s.Notifications.AppName = DefaultNotifyApp
	}
	if s.API.Addr == "" {
		s.API.Addr = DefaultAPIAddr
	}
}

// Validate enforces schema invariants.
func (s *Shell) Validate() error {
	mode := supervisor.Mode(s.Backend.Mode)
	switch mode {
	case supervisor.ModeDevelopment, supervisor.ModeProduction, supervisor.ModeContainer:
	default:
		return fmt.Errorf("%s: unsupported mode %q (supported values: development, production, container)", fieldPath("backend", "mode"), s.Backend.Mode)
	}
	if s.Backend.Port < 1 || s.Backend.Port > 65535 {
		return fmt.Errorf("%s: must be in range 1-65535", fieldPath("backend", "port"))
	}
	if mode == supervisor.ModeContainer {
		if strings.TrimSpace(s.Backend.Image) == "" {
			return fmt.Errorf("%s: is required in container mode", fieldPath("backend", "image"))
		}
		for i, port := range s.Backend.Ports {
			if err := validatePort(port); err != nil {
				return fmt.Errorf("%s: %w", fieldPath("backend", fmt.Sprintf("ports[%d]", i)), err)
			}
		}
	} else if s.Backend.Image != "" {
		return fmt.Errorf("%s: is only valid in container mode", fieldPath("backend", "image"))
	}
	for i, arg := range s.Backend.Command {
		if strings.TrimSpace(arg) == "" {
			return fmt.Errorf("%s: must be non-empty", fieldPath("backend", fmt.Sprintf("command[%d]", i)))
		}
	}
	if _, _, err := net.SplitHostPort(s.API.Addr); err != nil {
		return fmt.Errorf("%s: invalid address %q: %w", fieldPath("api", "addr"), s.API.Addr, err)
	}
	if s.Tray.TrayEnabled() {
		if !strings.HasPrefix(s.Tray.FrontendURL, "http://") && !strings.HasPrefix(s.Tray.FrontendURL, "https://") {
			return fmt.Errorf("%s: must be an http(s) URL", fieldPath("tray", "frontendUrl"))
		}
		if !strings.HasPrefix(s.Tray.BriefPath, "/") {
			return fmt.Errorf("%s: must begin with '/'", fieldPath("tray", "briefPath"))
		}
	}
	return nil
}

func validatePort(spec string) error {
	mappings, err := nat.ParsePortSpec(spec)
	if err != nil {
		return fmt.Errorf("invalid port mapping %q: %w", spec, err)
	}
	if len(mappings) == 0 {
		return fmt.Errorf("invalid port mapping %q: no port definitions found", spec)
	}
	return nil
}

// SupervisorConfig translates the backend section into a supervisor config.
func (s *Shell) SupervisorConfig() supervisor.Config {
	cfg := supervisor.Config{
		Mode:        supervisor.Mode(s.Backend.Mode),
		Command:     append([]string(nil), s.Backend.Command...),
		ProjectRoot: s.Backend.ProjectRoot,
		Workdir:     s.Backend.Workdir,
		Port:        s.Backend.Port,
		Image:       s.Backend.Image,
		Ports:       append([]string(nil), s.Backend.Ports...),
	}
	if len(s.Backend.Env) > 0 {
		cfg.Env = make(map[string]string, len(s.Backend.Env))
		for k, v := range s.Backend.Env {
			cfg.Env[k] = v
		}
	}
	return cfg
}

// Clone creates a deep copy of the document.
func (s *Shell) Clone() *Shell {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Backend.Command != nil {
		cp.Backend.Command = append([]string(nil), s.Backend.Command...)
	}
	if s.Backend.Ports != nil {
		cp.Backend.Ports = append([]string(nil), s.Backend.Ports...)
	}
	if s.Backend.Env != nil {
		cp.Backend.Env = make(map[string]string, len(s.Backend.Env))
		for k, v := range s.Backend.Env {
			cp.Backend.Env[k] = v
		}
	}
	if s.Tray.Enabled != nil {
		enabled := *s.Tray.Enabled
		cp.Tray.Enabled = &enabled
	}
	if s.Notifications.Enabled != nil {
		enabled := *s.Notifications.Enabled
		cp.Notifications.Enabled = &enabled
	}
	return &cp
}

func fieldPath(parts ...string) string {
	return strings.Join(parts, ".")
}
