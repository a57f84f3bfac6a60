package event

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestProperty_PrefixAndNames(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		service := rapid.StringMatching(`[a-z][a-z0-9-]{0,15}`).Draw(t, "service")
		stage := rapid.SampledFrom([]string{"dev", "prod", "qa-1"}).Draw(t, "stage")
		fn := rapid.StringMatching(`[a-z][a-zA-Z0-9]{0,15}`).Draw(t, "fn")
		name := rapid.StringMatching(`[A-Z][a-zA-Z0-9]{0,15}`).Draw(t, "name")
		fifo := rapid.Bool().Draw(t, "fifo")

		cfg, err := Validate(service, fn, stage, map[string]any{
			"name":     name,
			"topicArn": testTopicArn,
			"fifo":     fifo,
		})
		require.NoError(t, err)

		require.True(t, strings.HasPrefix(cfg.Prefix, service+"-"+stage+"-"))
		require.Equal(t, strings.ToUpper(fn[:1])+fn[1:], cfg.FuncName)
		require.True(t, strings.HasPrefix(cfg.QueueName(), cfg.Prefix+name))
		require.Equal(t, fifo, strings.HasSuffix(cfg.QueueName(), ".fifo"))
		require.Equal(t, fifo, strings.HasSuffix(cfg.DeadLetterQueueName(), ".fifo"))
	})
}

func TestProperty_LogicalIDsUnique(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[A-Z][a-zA-Z0-9]{0,20}`).Draw(t, "name")
		fn := rapid.StringMatching(`[A-Z][a-zA-Z0-9]{0,20}`).Draw(t, "fn")
		dlq := rapid.Bool().Draw(t, "dlq")

		cfg := &Config{Name: name, FuncName: fn, DeadLetterQueueEnabled: dlq}
		ids := cfg.LogicalIDs()

		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			require.False(t, seen[id], "duplicate logical ID %s", id)
			seen[id] = true
		}
		if dlq {
			require.Len(t, ids, 5)
		} else {
			require.Len(t, ids, 4)
		}
	})
}

func TestProperty_ParseIntOrRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(-100000, 100000).Draw(t, "n")
		def := rapid.IntRange(0, 100).Draw(t, "def")

		require.Equal(t, n, ParseIntOr(n, def))
		require.Equal(t, n, ParseIntOr(float64(n), def))
		require.Equal(t, n, ParseIntOr(" "+strconv.Itoa(n)+" ", def))
	})
}

func TestProperty_QueueNameLengthBound(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := rapid.StringMatching(`[a-zA-Z0-9-]{1,120}`).Draw(t, "name")
		got, err := ValidateQueueName(name)
		if len(name) > MaxQueueNameLength {
			require.ErrorIs(t, err, ErrQueueNameTooLong)
			return
		}
		require.NoError(t, err)
		require.Equal(t, name, got)
	})
}
