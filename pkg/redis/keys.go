package redis

import "strings"

const (
	keyNamespace      = "pf"
	lockPrefix        = "lock"
	lockScope         = "payouts"
	idempotencyPrefix = "idempotency"
)

// LockKey names the key guarding a scheduled job, e.g. pf:lock:payouts:<name>.
func (c *Client) LockKey(name string) string {
	return buildKey(lockPrefix, lockScope, name)
}

// IdempotencyKey names the key holding a replayable response for id within
// scope, e.g. pf:idempotency:<scope>:<id>.
func (c *Client) IdempotencyKey(scope, id string) string {
	return buildKey(idempotencyPrefix, scope, id)
}

func buildKey(parts ...string) string {
	key := make([]string, 1, len(parts)+1)
	key[0] = keyNamespace
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			key = append(key, part)
		}
	}
	return strings.Join(key, ":")
}
