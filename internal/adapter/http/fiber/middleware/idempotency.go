package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-ve/internal/ports"
)

const idempotencyKeyHeader = "Idempotency-Key"

// Idempotency implements spec §4.6 for POST mutations: replays the stored
// (status, response) for a previously-seen (key, body_hash) pair, rejects a
// key reused with a different body, and otherwise runs the handler and
// persists the result.
func Idempotency(store ports.IdempotencyStore, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(idempotencyKeyHeader)
		if key == "" {
			key = "auto-" + uuid.New().String()
		}

		bodyHash := canonicalHash(c.Body())

		record, err := store.Find(c.Context(), key)
		if err != nil {
			log.Error("idempotency: lookup failed", zap.Error(err))
			return c.Next()
		}
		if record != nil {
			if record.BodyHash != bodyHash {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "invalid_request"})
			}
			c.Set(idempotencyKeyHeader, key)
			return c.Status(record.StatusCode).Send(record.ResponseBody)
		}

		if err := c.Next(); err != nil {
			return err
		}

		responseBody := c.Response().Body()
		statusCode := c.Response().StatusCode()
		if err := store.Save(c.Context(), key, c.Method(), c.Path(), bodyHash, responseBody, statusCode); err != nil {
			log.Warn("idempotency: failed to persist record", zap.Error(err))
		}
		c.Set(idempotencyKeyHeader, key)
		return nil
	}
}

// canonicalHash sorts object keys recursively before hashing so two
// byte-different but semantically identical JSON bodies hash the same way.
func canonicalHash(body []byte) string {
	var parsed interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		sum := sha256.Sum256(body)
		return hex.EncodeToString(sum[:])
	}
	canonical, err := json.Marshal(canonicalize(parsed))
	if err != nil {
		sum := sha256.Sum256(body)
		return hex.EncodeToString(sum[:])
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])
}

func canonicalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ordered := make([]interface{}, 0, len(keys)*2)
		for _, k := range keys {
			ordered = append(ordered, k, canonicalize(val[k]))
		}
		return ordered
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = canonicalize(item)
		}
		return out
	default:
		return val
	}
}
