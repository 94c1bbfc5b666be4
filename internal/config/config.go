// Package config loads the manualchunks rules file and the environment the
// CLI runs with.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// FileName is the rules file Find looks for.
const FileName = "manualchunks.hcl"

// Config is a decoded rules file.
type Config struct {
	Manifest     string
	DefaultChunk string
	Context      string
	Rules        []Rule
	// Path is the file the config was read from, "" for in-memory sources.
	Path string
}

// Rule maps matching module paths to a bundle expression. A rule with neither
// Match nor Pattern matches every path.
type Rule struct {
	Name    string
	Match   string
	Pattern *regexp.Regexp
	Bundle  hcl.Expression
	// Async is nil when the rule leaves async naming to the default policy.
	Async hcl.Expression
}

type fileRoot struct {
	Manifest     string       `hcl:"manifest,optional"`
	DefaultChunk string       `hcl:"default_chunk,optional"`
	Context      string       `hcl:"context,optional"`
	Rules        []*ruleBlock `hcl:"rule,block"`
}

type ruleBlock struct {
	Name    string         `hcl:"name,label"`
	Match   string         `hcl:"match,optional"`
	Pattern string         `hcl:"pattern,optional"`
	Bundle  hcl.Expression `hcl:"bundle"`
	Async   hcl.Expression `hcl:"async,optional"`
}

// Load parses the rules file at path.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	cfg, err := Parse(src, path)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	if cfg.Context == "" {
		cfg.Context = filepath.Dir(path)
	}
	return cfg, nil
}

// Parse decodes rules from src. filename is only used in diagnostics.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", filename, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, nil, &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode rules file %s: %w", filename, diags)
	}

	cfg := &Config{
		Manifest:     root.Manifest,
		DefaultChunk: root.DefaultChunk,
		Context:      root.Context,
	}
	seen := make(map[string]bool, len(root.Rules))
	for _, rb := range root.Rules {
		if seen[rb.Name] {
			return nil, fmt.Errorf("rules file %s: duplicate rule %q", filename, rb.Name)
		}
		seen[rb.Name] = true
		if rb.Bundle == nil || isNullExpr(rb.Bundle) {
			return nil, fmt.Errorf("rules file %s: rule %q: bundle is required", filename, rb.Name)
		}

		r := Rule{Name: rb.Name, Match: rb.Match, Bundle: rb.Bundle}
		if rb.Pattern != "" {
			re, err := regexp.Compile(rb.Pattern)
			if err != nil {
				return nil, fmt.Errorf("rules file %s: rule %q: %w", filename, rb.Name, err)
			}
			r.Pattern = re
		}
		if rb.Async != nil && !isNullExpr(rb.Async) {
			r.Async = rb.Async
		}
		cfg.Rules = append(cfg.Rules, r)
	}
	return cfg, nil
}

// isNullExpr reports whether expr is the placeholder gohcl assigns to an
// absent attribute, or a literal null.
func isNullExpr(expr hcl.Expression) bool {
	if len(expr.Variables()) > 0 {
		return false
	}
	v, diags := expr.Value(nil)
	return !diags.HasErrors() && v.IsNull()
}

// Find walks up from dir looking for FileName and returns its path.
func Find(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}
	for {
		candidate := filepath.Join(abs, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("no %s found in %s or any parent directory", FileName, dir)
		}
		abs = parent
	}
}
