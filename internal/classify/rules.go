package classify

import (
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/olehluchkiv/manualchunks/internal/config"
	"github.com/olehluchkiv/manualchunks/internal/graph"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// ruleFunctions are callable from bundle expressions.
var ruleFunctions = map[string]function.Function{
	"lower":         stdlib.LowerFunc,
	"upper":         stdlib.UpperFunc,
	"replace":       stdlib.ReplaceFunc,
	"regex_replace": stdlib.RegexReplaceFunc,
	"trimprefix":    stdlib.TrimPrefixFunc,
	"trimsuffix":    stdlib.TrimSuffixFunc,
	"join":          stdlib.JoinFunc,
}

// RuleSet names modules from the rules of a config file. The first rule whose
// match and pattern both accept the module path wins.
type RuleSet struct {
	rules  []config.Rule
	logger *slog.Logger
}

// NewRuleSet wraps the rules of cfg.
func NewRuleSet(cfg *config.Config, logger *slog.Logger) *RuleSet {
	return &RuleSet{rules: cfg.Rules, logger: logger.With("component", "classify.rules")}
}

// HasAsyncRules reports whether any rule names async chunks explicitly.
func (s *RuleSet) HasAsyncRules() bool {
	for _, r := range s.rules {
		if r.Async != nil {
			return true
		}
	}
	return false
}

// InitialName implements NameFunc for initial chunks.
func (s *RuleSet) InitialName(file string, chunk *graph.Chunk) string {
	r, groups, ok := s.lookup(file)
	if !ok {
		return ""
	}
	return s.eval(r, r.Bundle, file, chunk, groups)
}

// AsyncName implements NameFunc for async chunks. Rules without an async
// expression use their bundle name plus AsyncSuffix.
func (s *RuleSet) AsyncName(file string, chunk *graph.Chunk) string {
	r, groups, ok := s.lookup(file)
	if !ok {
		return ""
	}
	if r.Async != nil {
		return s.eval(r, r.Async, file, chunk, groups)
	}
	name := s.eval(r, r.Bundle, file, chunk, groups)
	if name == "" {
		return ""
	}
	return name + AsyncSuffix
}

// Apply installs the rule set's naming functions on opts.
func (s *RuleSet) Apply(opts *Options) {
	opts.GetChunkName = s.InitialName
	if s.HasAsyncRules() {
		opts.GetAsyncChunkName = s.AsyncName
	}
}

func (s *RuleSet) lookup(file string) (config.Rule, []string, bool) {
	p := filepath.ToSlash(file)
	for _, r := range s.rules {
		if r.Match != "" && !strings.Contains(p, r.Match) {
			continue
		}
		var groups []string
		if r.Pattern != nil {
			m := r.Pattern.FindStringSubmatch(p)
			if m == nil {
				continue
			}
			groups = m[1:]
		}
		return r, groups, true
	}
	return config.Rule{}, nil, false
}

func (s *RuleSet) eval(r config.Rule, expr hcl.Expression, file string, chunk *graph.Chunk, groups []string) string {
	p := filepath.ToSlash(file)
	match := cty.ListValEmpty(cty.String)
	if len(groups) > 0 {
		vals := make([]cty.Value, len(groups))
		for i, g := range groups {
			vals[i] = cty.StringVal(g)
		}
		match = cty.ListVal(vals)
	}
	ext := path.Ext(p)
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"path":  cty.StringVal(p),
			"dir":   cty.StringVal(path.Dir(p)),
			"base":  cty.StringVal(strings.TrimSuffix(path.Base(p), ext)),
			"ext":   cty.StringVal(ext),
			"chunk": cty.StringVal(chunk.Name()),
			"match": match,
		},
		Functions: ruleFunctions,
	}

	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		s.logger.Warn("rule expression failed", "rule", r.Name, "module", file, "error", diags.Error())
		return ""
	}
	if val.IsNull() || !val.IsKnown() {
		return ""
	}
	val, err := convert.Convert(val, cty.String)
	if err != nil {
		s.logger.Warn("rule expression is not a string", "rule", r.Name, "module", file, "error", err)
		return ""
	}
	return val.AsString()
}
