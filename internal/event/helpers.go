package event

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MaxQueueNameLength is the SQS limit on queue names, including the .fifo suffix.
const MaxQueueNameLength = 80

// kmsArnRegex matches AWS KMS key ARNs.
var kmsArnRegex = regexp.MustCompile(`^arn:aws:kms:.*:.*:key/.+$`)

// ParseIntOr converts v to an int, returning def when v is nil or has no
// leading integer. Floats are truncated and strings are read up to the first
// non-digit, so "12", "12.9" and "12 messages" all give 12.
func ParseIntOr(v any, def int) int {
	switch n := v.(type) {
	case nil:
		return def
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return def
		}
		return int(n)
	case json.Number:
		return parseIntPrefix(n.String(), def)
	case string:
		return parseIntPrefix(n, def)
	default:
		return parseIntPrefix(fmt.Sprint(n), def)
	}
}

func parseIntPrefix(s string, def int) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return def
	}
	i, err := strconv.Atoi(s[:end])
	if err != nil {
		return def
	}
	return i
}

// IsKmsArn reports whether s looks like a KMS key ARN.
func IsKmsArn(s string) bool {
	return kmsArnRegex.MatchString(s)
}

// ValidateQueueName returns name unchanged or ErrQueueNameTooLong.
func ValidateQueueName(name string) (string, error) {
	if len(name) > MaxQueueNameLength {
		return "", fmt.Errorf("%w: [%s] is longer than %d characters long and may be truncated by AWS, causing naming collisions. Try a shorter prefix or name, or set omitPhysicalId",
			ErrQueueNameTooLong, name, MaxQueueNameLength)
	}
	return name, nil
}

// KmsKeyResource returns the IAM resource for a kmsMasterKeyId value.
// Intrinsic objects and KMS ARNs pass through so CloudFormation resolves them;
// anything else is taken to be a bare key ID and expanded to an ARN.
func KmsKeyResource(keyID any) any {
	switch k := keyID.(type) {
	case string:
		if IsKmsArn(k) {
			return k
		}
		return "arn:aws:kms:::key/" + k
	default:
		return keyID
	}
}

// describe renders a raw configuration value for error messages.
func describe(v any) string {
	if v == nil {
		return "undefined"
	}
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
