package bootstrap

import (
	"fmt"
	"io"
	"time"
)

// ServiceInfo describes one runtime service shown in the summary.
type ServiceInfo struct {
	Name    string
	Details string
	Enabled bool
}

// ToolInfo describes a registered tool.
type ToolInfo struct {
	Name    string
	Kind    string // "command", "funcs", "custom"
	Methods []string
}

// PipelineInfo describes a pipeline built through the runtime.
type PipelineInfo struct {
	Name   string
	Steps  int
	Source string // "definition" or "code"
}

// Summary tracks and displays what the runtime wired up.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	services        []ServiceInfo
	tools           []ToolInfo
	pipelines       []PipelineInfo
}

// NewSummary creates a new summary tracker.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
		services:    make([]ServiceInfo, 0),
		tools:       make([]ToolInfo, 0),
		pipelines:   make([]PipelineInfo, 0),
	}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackService records a runtime service such as tracing or the cache.
func (s *Summary) TrackService(name, details string, enabled bool) {
	s.services = append(s.services, ServiceInfo{Name: name, Details: details, Enabled: enabled})
}

// TrackTool records a registered tool.
func (s *Summary) TrackTool(name, kind string, methods []string) {
	s.tools = append(s.tools, ToolInfo{Name: name, Kind: kind, Methods: methods})
}

// TrackPipeline records a pipeline built through the runtime.
func (s *Summary) TrackPipeline(name string, steps int, source string) {
	s.pipelines = append(s.pipelines, PipelineInfo{Name: name, Steps: steps, Source: source})
}

// Services returns the tracked services.
func (s *Summary) Services() []ServiceInfo { return s.services }

// Tools returns the tracked tools.
func (s *Summary) Tools() []ToolInfo { return s.tools }

// Pipelines returns the tracked pipelines.
func (s *Summary) Pipelines() []PipelineInfo { return s.pipelines }

// DisplaySummary writes the summary to w.
func (s *Summary) DisplaySummary(w io.Writer) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "🚀 %s v%s ready in %.2fs\n\n",
		s.serviceName, s.version, s.startupDuration.Seconds())

	if len(s.services) > 0 {
		fmt.Fprintf(w, "📊 Services\n")
		for i, svc := range s.services {
			fmt.Fprintf(w, "   %s %s %s: %s\n", treePrefix(i, len(s.services)), statusIcon(svc.Enabled), svc.Name, svc.Details)
		}
		fmt.Fprintf(w, "\n")
	}

	fmt.Fprintf(w, "🔧 Tools (%d)\n", len(s.tools))
	if len(s.tools) == 0 {
		fmt.Fprintf(w, "   └── No tools registered\n")
	}
	for i, t := range s.tools {
		fmt.Fprintf(w, "   %s %s %s %v\n", treePrefix(i, len(s.tools)), kindIcon(t.Kind), t.Name, t.Methods)
	}

	if len(s.pipelines) > 0 {
		fmt.Fprintf(w, "\n📦 Pipelines\n")
		for i, p := range s.pipelines {
			fmt.Fprintf(w, "   %s %s (%d steps, %s)\n", treePrefix(i, len(s.pipelines)), p.Name, p.Steps, p.Source)
		}
	}

	fmt.Fprintf(w, "\n")
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func statusIcon(enabled bool) string {
	if enabled {
		return "✅"
	}
	return "⏸️"
}

func kindIcon(kind string) string {
	switch kind {
	case "command":
		return "⚙️"
	case "funcs":
		return "🎯"
	default:
		return "💼"
	}
}
