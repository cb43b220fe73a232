// Package dedupe replays responses for requests that carry the same
// Idempotency-Key within a configurable window, so a retried create does not
// produce a second item.
package dedupe
