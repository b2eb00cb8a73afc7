package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var (
	xssPattern     = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=|onclick=)`)
	segmentPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)
)

type Config struct {
	// Prefix limits checks to paths below it.
	Prefix              string
	MaxFieldLength      int
	MaxDepth            int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

// Middleware rejects malformed API input before it reaches a handler: odd
// path segments, non-JSON bodies, oversized or script-bearing strings and
// deeply nested documents.
func Middleware(cfg Config) fiber.Handler {
	if cfg.Prefix == "" {
		cfg.Prefix = "/api/v1"
	}
	if cfg.MaxFieldLength == 0 {
		cfg.MaxFieldLength = 5000
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = 8
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{fiber.MIMEApplicationJSON}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		path := c.Path()
		if !strings.HasPrefix(path, cfg.Prefix) {
			return c.Next()
		}

		for _, seg := range strings.Split(strings.Trim(strings.TrimPrefix(path, cfg.Prefix), "/"), "/") {
			if seg != "" && !segmentPattern.MatchString(seg) {
				return reject(c, fiber.StatusBadRequest, "Invalid path")
			}
		}

		if c.Method() != fiber.MethodPost && c.Method() != fiber.MethodPut {
			return c.Next()
		}
		body := c.Body()
		if len(body) == 0 {
			return c.Next()
		}

		contentType := c.Get(fiber.HeaderContentType)
		allowed := false
		for _, t := range cfg.AllowedContentTypes {
			if strings.Contains(contentType, t) {
				allowed = true
				break
			}
		}
		if !allowed {
			return reject(c, fiber.StatusUnsupportedMediaType, "Unsupported content type")
		}

		var doc interface{}
		if err := json.Unmarshal(body, &doc); err != nil {
			return reject(c, fiber.StatusBadRequest, "Invalid JSON format")
		}

		if field, problem := inspect(doc, "", 0, cfg); problem != "" {
			cfg.Logger.Warn("Rejected request input",
				zap.String("ip", c.IP()),
				zap.String("path", path),
				zap.String("field", field),
				zap.String("problem", problem),
			)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request content",
				"code":  "VALIDATION_ERROR",
				"fields": []fiber.Map{{
					"field":   field,
					"message": problem,
				}},
			})
		}

		return c.Next()
	}
}

// inspect walks a decoded JSON document and reports the first offending
// field as a dotted path.
func inspect(v interface{}, path string, depth int, cfg Config) (string, string) {
	if depth > cfg.MaxDepth {
		return path, "document is nested too deeply"
	}
	switch val := v.(type) {
	case string:
		if len(val) > cfg.MaxFieldLength {
			return path, fmt.Sprintf("value exceeds %d characters", cfg.MaxFieldLength)
		}
		if strings.ContainsRune(val, '\x00') {
			return path, "value contains a NUL byte"
		}
		if xssPattern.MatchString(val) {
			return path, "value contains markup that is not allowed"
		}
	case map[string]interface{}:
		for k, child := range val {
			if field, problem := inspect(child, join(path, k), depth+1, cfg); problem != "" {
				return field, problem
			}
		}
	case []interface{}:
		for i, child := range val {
			if field, problem := inspect(child, fmt.Sprintf("%s[%d]", path, i), depth+1, cfg); problem != "" {
				return field, problem
			}
		}
	}
	return "", ""
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func reject(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  "VALIDATION_ERROR",
	})
}
