// Package plugin binds snsSqs function events to the package lifecycle: it
// registers the event schema and, at the package finalize hook, adds the
// resources of every snsSqs event to the compiled template.
package plugin

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	wetwire "github.com/lex00/wetwire-snssqs-go"
	"github.com/lex00/wetwire-snssqs-go/internal/event"
	"github.com/lex00/wetwire-snssqs-go/internal/resources"
	"github.com/lex00/wetwire-snssqs-go/internal/schema"
	"github.com/lex00/wetwire-snssqs-go/internal/service"
)

// HookPackageFinalize is the lifecycle hook the template is modified at.
const HookPackageFinalize = "aws:package:finalize:mergeCustomProviderResources"

// ErrUnsupportedProvider is returned for services whose provider is not AWS.
var ErrUnsupportedProvider = errors.New("This plugin must be used with AWS")

// Options are the command line options the plugin reads.
type Options struct {
	Stage          string
	Region         string
	Verbose        bool
	ValidationMode schema.Mode
}

// Hook mutates a compiled template.
type Hook func(ctx context.Context, tmpl *wetwire.Template) error

// Plugin adds snsSqs resources to compiled templates.
type Plugin struct {
	svc      *service.Service
	opts     Options
	registry *schema.Registry
	stage    string
}

// Binding is one snsSqs event of a function.
type Binding struct {
	Function service.Function
	Raw      any
}

// New registers the snsSqs event schema in registry and returns the plugin.
func New(svc *service.Service, opts Options, registry *schema.Registry) (*Plugin, error) {
	if svc.Provider.Name != event.Provider {
		return nil, ErrUnsupportedProvider
	}
	if registry == nil {
		registry = schema.NewRegistry()
	}
	if !registry.Defined(event.Provider, event.Type) {
		if err := registry.DefineFunctionEvent(event.Provider, event.Type, event.Schema()); err != nil {
			return nil, err
		}
	}
	if opts.ValidationMode == "" {
		opts.ValidationMode = schema.ModeWarn
	}

	stage := opts.Stage
	if stage == "" {
		stage = svc.Provider.Stage
	}
	if stage == "" {
		stage = service.DefaultStage
	}

	return &Plugin{svc: svc, opts: opts, registry: registry, stage: stage}, nil
}

// Stage returns the stage used for default queue prefixes.
func (p *Plugin) Stage() string { return p.stage }

// Hooks returns the lifecycle hooks the plugin binds.
func (p *Plugin) Hooks() map[string]Hook {
	return map[string]Hook{
		HookPackageFinalize: p.ModifyTemplate,
	}
}

// Bindings lists every snsSqs event in function declaration order.
func (p *Plugin) Bindings() []Binding {
	var bindings []Binding
	for _, fn := range p.svc.Functions {
		for _, raw := range fn.EventsOfType(event.Type) {
			bindings = append(bindings, Binding{Function: fn, Raw: raw})
		}
	}
	return bindings
}

// CheckSchema validates a binding against the registered event schema. The
// result depends on the validation mode: violations are returned in error
// mode, logged in warn mode, and not checked at all in off mode.
func (p *Plugin) CheckSchema(b Binding) error {
	if p.opts.ValidationMode == schema.ModeOff {
		return nil
	}
	err := p.registry.ValidateFunctionEvent(event.Provider, event.Type, b.Raw)
	if err == nil {
		return nil
	}
	if p.opts.ValidationMode == schema.ModeError {
		return fmt.Errorf("function [%s]: %w", b.Function.Key, err)
	}
	zap.L().Warn("snsSqs event does not match its schema",
		zap.String("function", b.Function.Key),
		zap.Error(err))
	return nil
}

// Config validates a binding and returns its defaulted configuration.
func (p *Plugin) Config(b Binding) (*event.Config, error) {
	raw, ok := b.Raw.(map[string]any)
	if !ok {
		raw = map[string]any{}
	}
	return event.Validate(p.svc.Name, b.Function.Key, p.stage, raw)
}

// ModifyTemplate adds the resources of every snsSqs event to tmpl.
func (p *Plugin) ModifyTemplate(ctx context.Context, tmpl *wetwire.Template) error {
	for _, b := range p.Bindings() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.CheckSchema(b); err != nil {
			return err
		}
		if p.opts.Verbose {
			zap.L().Info("Adding snsSqs event handler",
				zap.String("function", b.Function.Key),
				zap.Any("event", b.Raw))
		}

		cfg, err := p.Config(b)
		if err != nil {
			return err
		}
		fn := resources.Function{
			Key:                    b.Function.Key,
			ProvisionedConcurrency: b.Function.HasProvisionedConcurrency(),
		}
		if err := resources.AddSnsSqsResources(tmpl, fn, cfg); err != nil {
			return err
		}
	}
	return nil
}

// Run invokes the hook registered under name.
func (p *Plugin) Run(ctx context.Context, name string, tmpl *wetwire.Template) error {
	hook, ok := p.Hooks()[name]
	if !ok {
		return fmt.Errorf("no hook registered for %s", name)
	}
	return hook(ctx, tmpl)
}
