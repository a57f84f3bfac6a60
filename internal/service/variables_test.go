package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestResolver_Variables(t *testing.T) {
	root := map[string]any{
		"service": "svc",
		"provider": map[string]any{
			"name":  "aws",
			"stage": "${opt:stage, 'qa'}",
		},
		"custom": map[string]any{
			"count":  5,
			"nested": map[string]any{"a": "b"},
			"list":   []any{"x", "y"},
			"self":   "${self:custom.count}",
			"loopA":  "${self:custom.loopB}",
			"loopB":  "${self:custom.loopA}",
		},
	}

	tests := []struct {
		name  string
		in    string
		opts  Options
		want  any
		isErr bool
	}{
		{name: "self string", in: "${self:service}", want: "svc"},
		{name: "self keeps type", in: "${self:custom.count}", want: 5},
		{name: "self map", in: "${self:custom.nested}", want: map[string]any{"a": "b"}},
		{name: "self list index", in: "${self:custom.list.1}", want: "y"},
		{name: "self chained", in: "${self:custom.self}", want: 5},
		{name: "interpolated", in: "${self:service}-${sls:stage}-queue", want: "svc-qa-queue"},
		{name: "interpolated number", in: "n${self:custom.count}", want: "n5"},
		{name: "opt stage", in: "${opt:stage}", opts: Options{Stage: "prod"}, want: "prod"},
		{name: "sls stage from option", in: "${sls:stage}", opts: Options{Stage: "prod"}, want: "prod"},
		{name: "sls stage from provider", in: "${sls:stage}", want: "qa"},
		{name: "opt fallback quoted", in: "${opt:region, 'eu-west-1'}", want: "eu-west-1"},
		{name: "opt fallback double quoted", in: `${opt:region, "a,b"}`, want: "a,b"},
		{name: "fallback to self", in: "${opt:region, self:service}", want: "svc"},
		{name: "fallback number literal", in: "${env:MISSING, 10}", want: 10},
		{name: "fallback bool literal", in: "${env:MISSING, true}", want: true},
		{name: "nested fallback", in: "${env:MISSING, ${self:service}}", want: "svc"},
		{name: "env", in: "${env:HOME_DIR}", want: "/home/me"},
		{name: "unknown source kept", in: "${ssm:/path/to/param}", want: "${ssm:/path/to/param}"},
		{name: "plain", in: "no variables", want: "no variables"},
		{name: "missing self", in: "${self:custom.nope}", isErr: true},
		{name: "missing opt", in: "${opt:region}", isErr: true},
		{name: "circular", in: "${self:custom.loopA}", isErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.LookupEnv = env(map[string]string{"HOME_DIR": "/home/me"})
			r := newResolver(root, tt.opts)
			got, err := r.resolve(tt.in, 0)
			if tt.isErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitFallbacks(t *testing.T) {
	assert.Equal(t, []string{"opt:stage", " 'dev'"}, splitFallbacks("opt:stage, 'dev'"))
	assert.Equal(t, []string{"env:X", " 'a,b'", " c"}, splitFallbacks("env:X, 'a,b', c"))
	assert.Equal(t, []string{"self:service"}, splitFallbacks("self:service"))
}

func TestLookupPath(t *testing.T) {
	root := map[string]any{"a": map[string]any{"b": []any{"c", "d"}}}

	v, ok := lookupPath(root, "a.b.0")
	assert.True(t, ok)
	assert.Equal(t, "c", v)

	v, ok = lookupPath(root, "")
	assert.True(t, ok)
	assert.Equal(t, root, v)

	_, ok = lookupPath(root, "a.b.9")
	assert.False(t, ok)
	_, ok = lookupPath(root, "a.x")
	assert.False(t, ok)
	_, ok = lookupPath(root, "a.b.0.z")
	assert.False(t, ok)
}
