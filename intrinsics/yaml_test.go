package intrinsics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalYAML_ShortForms(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want any
	}{
		{"ref", "v: !Ref TopicArn", map[string]any{"Ref": "TopicArn"}},
		{"getatt dotted", "v: !GetAtt Queue.Arn", map[string]any{"Fn::GetAtt": []any{"Queue", "Arn"}}},
		{"getatt list", "v: !GetAtt [Queue, Arn]", map[string]any{"Fn::GetAtt": []any{"Queue", "Arn"}}},
		{"sub", "v: !Sub '${AWS::Region}-x'", map[string]any{"Fn::Sub": "${AWS::Region}-x"}},
		{"import value", "v: !ImportValue shared-topic", map[string]any{"Fn::ImportValue": "shared-topic"}},
		{"join nested", "v: !Join ['', [a, !Ref B]]", map[string]any{
			"Fn::Join": []any{"", []any{"a", map[string]any{"Ref": "B"}}},
		}},
		{"get azs empty", "v: !GetAZs ''", map[string]any{"Fn::GetAZs": ""}},
		{"if", "v: !If [IsProd, 1, 2]", map[string]any{"Fn::If": []any{"IsProd", 1, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := UnmarshalYAML([]byte(tt.yaml))
			require.NoError(t, err)
			m, ok := got.(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tt.want, m["v"])
		})
	}
}

func TestUnmarshalYAML_PlainValues(t *testing.T) {
	got, err := UnmarshalYAML([]byte(`
name: Event
batchSize: 3
fifo: true
filterPolicy:
  pet: [dog, cat]
`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":         "Event",
		"batchSize":    3,
		"fifo":         true,
		"filterPolicy": map[string]any{"pet": []any{"dog", "cat"}},
	}, got)
}

func TestUnmarshalYAML_Merge(t *testing.T) {
	got, err := UnmarshalYAML([]byte(`
base: &base
  batchSize: 1
  fifo: false
event:
  <<: *base
  fifo: true
`))
	require.NoError(t, err)
	ev := got.(map[string]any)["event"]
	assert.Equal(t, map[string]any{"batchSize": 1, "fifo": true}, ev)
}

func TestUnmarshalYAML_Errors(t *testing.T) {
	_, err := UnmarshalYAML([]byte("v: !GetAtt NoDot"))
	assert.Error(t, err)

	_, err = UnmarshalYAML([]byte("v: [unclosed"))
	assert.Error(t, err)

	got, err := UnmarshalYAML([]byte(""))
	require.NoError(t, err)
	assert.Nil(t, got)
}
