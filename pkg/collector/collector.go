// Package collector drives a field-by-field acquisition session: it walks the
// engine's topological order, resolves dynamic choice sets as their
// dependencies become available, validates every value before accepting it,
// and hands the finished set of inputs back for payload generation.
package collector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/brunseba/vra-cli/pkg/engine"
	"github.com/brunseba/vra-cli/pkg/model"
	"github.com/brunseba/vra-cli/pkg/resolver"
)

var (
	// ErrAborted signals the user interrupted the session (e.g. Ctrl+C).
	ErrAborted = errors.New("collector: aborted")

	// ErrValidation signals a value that could not be validated: either a
	// pre-filled value in batch mode, or an interactive field whose retry
	// budget ran out.
	ErrValidation = errors.New("collector: validation failed")
)

const defaultMaxRetries = 3

// Collector orchestrates engine, resolver, and prompt driver for one
// collection session at a time. Sessions are strictly sequential; a Collector
// must not be shared across concurrent sessions.
type Collector struct {
	resolver   *resolver.Resolver
	driver     PromptDriver
	logger     *log.Logger
	maxRetries int
}

// Option configures a Collector.
type Option func(*Collector)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(c *Collector) {
		if driver != nil {
			c.driver = driver
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxRetries bounds how often an interactive field is re-prompted after a
// validation failure before the session fails.
func WithMaxRetries(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// New builds a Collector around the given resolver.
func New(res *resolver.Resolver, options ...Option) *Collector {
	c := &Collector{
		resolver:   res,
		driver:     NewSurveyDriver(),
		logger:     log.New(os.Stderr),
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// CollectInputs acquires a value for every field of schema, in topological
// order. Values supplied through initial are validated without prompting and
// fail the whole session on violation (batch semantics). Optional fields are
// skipped when skipOptional is set, unless initial supplies them explicitly.
// Each accepted value is visible to later fields' templates.
func (c *Collector) CollectInputs(ctx context.Context, schema *model.CatalogItemSchema, initial map[string]any, skipOptional bool) (map[string]any, error) {
	fields, err := engine.ExtractFormFields(schema)
	if err != nil {
		return nil, err
	}

	resolved := make(map[string]any, len(fields))
	for i := range fields {
		field := &fields[i]

		supplied, hasInitial := initial[field.Name]
		if skipOptional && !field.Required && !hasInitial {
			continue
		}

		c.resolveChoices(ctx, field, resolved)

		if hasInitial {
			value, violations := engine.ValidateField(field, supplied)
			if len(violations) > 0 {
				return nil, fmt.Errorf("%w: field %q: %s", ErrValidation, field.Name, strings.Join(violations, "; "))
			}
			if value != nil {
				resolved[field.Name] = value
			}
			continue
		}

		value, err := c.promptField(ctx, field, resolved)
		if err != nil {
			return nil, err
		}
		if value != nil {
			resolved[field.Name] = value
		}
	}
	return resolved, nil
}

// resolveChoices populates a dynamic field's runtime choice set from the
// values accepted so far. A template whose variables are not all set leaves
// the field pending with an empty choice set; it is presented as free entry
// rather than blocking the session.
func (c *Collector) resolveChoices(ctx context.Context, field *model.FormField, resolved map[string]any) {
	if field.DataSource == "" || c.resolver == nil {
		return
	}
	res := c.resolver.Resolve(ctx, field.DataSource, resolved)
	field.Pending = res.Pending
	if res.Pending {
		field.Choices = nil
		c.logger.Debug("dynamic choices pending", "field", field.Name, "missing", res.Missing)
		return
	}
	field.Choices = res.Values
}

func (c *Collector) promptField(ctx context.Context, field *model.FormField, resolved map[string]any) (any, error) {
	def := c.promptDefault(ctx, field, resolved)

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, err := c.askOnce(ctx, field, def)
		if err != nil {
			return nil, err
		}

		if isBlank(raw) && !field.Required {
			return nil, nil
		}

		value, violations := engine.ValidateField(field, raw)
		if len(violations) == 0 {
			return value, nil
		}
		if err := c.driver.Info(ctx, fmt.Sprintf("Invalid %s: %s", field.Name, strings.Join(violations, "; "))); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: field %q: retry limit reached", ErrValidation, field.Name)
}

// promptDefault picks the value pre-filled into the prompt: the static schema
// default when declared, otherwise the dynamic default when its template is
// already resolvable.
func (c *Collector) promptDefault(ctx context.Context, field *model.FormField, resolved map[string]any) any {
	if field.Default != nil {
		return field.Default
	}
	if field.DynamicDefault != "" && c.resolver != nil {
		if value, ok := c.resolver.ResolveDefault(ctx, field.DynamicDefault, resolved); ok {
			return value
		}
	}
	return nil
}

func (c *Collector) askOnce(ctx context.Context, field *model.FormField, def any) (any, error) {
	label := promptLabel(field)
	help := field.Description

	if field.HasChoices() {
		options := stringifyChoices(field.Choices)
		if field.Type == model.FieldTypeArray {
			indices, err := c.driver.MultiSelect(ctx, SelectConfig{
				Message: label,
				Options: options,
				Help:    help,
			})
			if err != nil {
				return nil, err
			}
			picked := make([]any, 0, len(indices))
			for _, idx := range indices {
				if idx >= 0 && idx < len(field.Choices) {
					picked = append(picked, field.Choices[idx])
				}
			}
			return picked, nil
		}

		idx, err := c.driver.Select(ctx, SelectConfig{
			Message:      label,
			Options:      options,
			DefaultIndex: indexOf(options, fmt.Sprint(def)),
			Help:         help,
		})
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(field.Choices) {
			return nil, nil
		}
		return field.Choices[idx], nil
	}

	switch field.Type {
	case model.FieldTypeBoolean:
		defBool, _ := def.(bool)
		return c.driver.Confirm(ctx, ConfirmConfig{
			Message: label,
			Default: defBool,
			Help:    help,
		})
	case model.FieldTypeArray:
		return c.collectArrayEntries(ctx, field, help)
	default:
		defStr := ""
		if def != nil {
			defStr = fmt.Sprint(def)
		}
		return c.driver.Input(ctx, InputConfig{
			Message: label,
			Default: defStr,
			Help:    help,
		})
	}
}

// collectArrayEntries reads one entry per prompt until a blank line.
func (c *Collector) collectArrayEntries(ctx context.Context, field *model.FormField, help string) (any, error) {
	var entries []any
	for {
		entry, err := c.driver.Input(ctx, InputConfig{
			Message: fmt.Sprintf("%s (blank to finish)", promptLabel(field)),
			Help:    help,
		})
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(entry) == "" {
			return entries, nil
		}
		entries = append(entries, strings.TrimSpace(entry))
	}
}

// ConfirmExecution shows a summary of the execution context and asks for a
// single yes/no. Validation already happened during collection; none is
// repeated here.
func (c *Collector) ConfirmExecution(ctx context.Context, execCtx model.ExecutionContext) (bool, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "About to request %q", execCtx.Schema.Name)
	if execCtx.Name != "" {
		fmt.Fprintf(&b, " as %q", execCtx.Name)
	}
	if execCtx.Project != "" {
		fmt.Fprintf(&b, " in project %q", execCtx.Project)
	}
	if execCtx.DryRun {
		b.WriteString(" (dry run)")
	}
	b.WriteString("\n")
	for name, value := range execCtx.Inputs {
		fmt.Fprintf(&b, "  %s = %v\n", name, value)
	}

	if err := c.driver.Info(ctx, strings.TrimRight(b.String(), "\n")); err != nil {
		return false, err
	}
	return c.driver.Confirm(ctx, ConfirmConfig{Message: "Proceed?", Default: true})
}

func promptLabel(field *model.FormField) string {
	if field.Title != "" {
		return field.Title
	}
	return field.Name
}

func stringifyChoices(choices []any) []string {
	out := make([]string, len(choices))
	for i, choice := range choices {
		out[i] = fmt.Sprint(choice)
	}
	return out
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	default:
		return false
	}
}
