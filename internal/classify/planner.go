package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/olehluchkiv/manualchunks/internal/graph"
)

// DefaultMaxFiles caps how many module paths one planning request carries.
const DefaultMaxFiles = 500

// Completer sends a chat exchange and returns the assistant's JSON content.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Plan maps a module file to the bundle a planner proposed for it.
type Plan map[string]string

// With returns a NameFunc answering from the plan and from fallback for files
// the plan does not cover. A nil fallback leaves those files unnamed.
func (p Plan) With(fallback NameFunc) NameFunc {
	return func(file string, chunk *graph.Chunk) string {
		if name, ok := p[filepath.ToSlash(file)]; ok {
			return name
		}
		if fallback == nil {
			return ""
		}
		return fallback(file, chunk)
	}
}

// Planner asks a language model to group module files into bundles.
type Planner struct {
	client   Completer
	maxFiles int
	logger   *slog.Logger
}

// NewPlanner creates a planner. maxFiles <= 0 means DefaultMaxFiles.
func NewPlanner(client Completer, maxFiles int, logger *slog.Logger) *Planner {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	return &Planner{
		client:   client,
		maxFiles: maxFiles,
		logger:   logger.With("component", "classify.planner"),
	}
}

var bundleNameRe = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

const plannerSystemPrompt = `You are a front-end build engineer. Given the module files of a JavaScript bundle, split them into a small number of named bundles that load well together (for example "vendor", "framework", "app", or one bundle per feature directory).

Respond with JSON only:
{
  "bundles": {
    "bundle-name": ["path/of/module.js"]
  }
}

Rules:
- Use only the paths you were given, each in at most one bundle
- Bundle names contain only letters, digits, ".", "_" and "-"
- Third-party code under node_modules belongs together unless it is very large`

// Plan proposes bundles for files. Any failure is logged and yields an empty
// plan so the caller's fallback names every module.
func (p *Planner) Plan(ctx context.Context, files []string) Plan {
	known := make(map[string]bool, len(files))
	var paths []string
	for _, f := range files {
		f = filepath.ToSlash(f)
		if f == "" || known[f] {
			continue
		}
		known[f] = true
		paths = append(paths, f)
	}
	if len(paths) == 0 {
		return Plan{}
	}
	slices.Sort(paths)
	if len(paths) > p.maxFiles {
		p.logger.Info("too many modules for one request, planning a prefix", "modules", len(paths), "max", p.maxFiles)
		paths = paths[:p.maxFiles]
	}

	resp, err := p.client.Complete(ctx, plannerSystemPrompt, serializeFiles(paths))
	if err != nil {
		p.logger.Warn("LLM planner failed, using rules", "error", err)
		return Plan{}
	}

	var parsed struct {
		Bundles map[string][]string `json:"bundles"`
	}
	if err := json.Unmarshal([]byte(resp), &parsed); err != nil {
		p.logger.Warn("LLM planner returned invalid JSON", "error", err)
		return Plan{}
	}

	plan := Plan{}
	names := make([]string, 0, len(parsed.Bundles))
	for name := range parsed.Bundles {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		members := parsed.Bundles[name]
		if !bundleNameRe.MatchString(name) {
			p.logger.Warn("LLM planner proposed an invalid bundle name", "bundle", name)
			continue
		}
		for _, f := range members {
			if !known[f] {
				continue
			}
			if prev, dup := plan[f]; dup && prev != name {
				p.logger.Debug("module proposed for two bundles, keeping first", "module", f, "kept", prev, "dropped", name)
				continue
			}
			plan[f] = name
		}
	}
	if len(plan) == 0 {
		p.logger.Warn("LLM planner returned no usable bundles, using rules")
	}
	return plan
}

func serializeFiles(paths []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d module files:\n", len(paths))
	for _, f := range paths {
		b.WriteString(f)
		b.WriteByte('\n')
	}
	return b.String()
}
