package middleware

import (
	"Inspecta/Models"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// LogConfig holds configuration for the logging middleware
type LogConfig struct {
	// Enable console logging
	Console bool
	// Enable file logging
	File bool
	// Log file path
	LogFilePath string
	// Include request body in logs
	IncludeBody bool
	// Skip logging for path prefixes
	SkipPaths []string
}

// LogData contains all the information that will be logged
type LogData struct {
	Timestamp     time.Time     `json:"timestamp"`
	Method        string        `json:"method"`
	Path          string        `json:"path"`
	URL           string        `json:"url"`
	Status        int           `json:"status"`
	Latency       time.Duration `json:"latency"`
	IP            string        `json:"ip"`
	UserAgent     string        `json:"user_agent"`
	RequestID     string        `json:"request_id"`
	RequestBody   interface{}   `json:"request_body,omitempty"`
	Error         string        `json:"error,omitempty"`
	UserID        string        `json:"user_id,omitempty"`
	UserEmail     string        `json:"user_email,omitempty"`
	UserRole      string        `json:"user_role,omitempty"`
	ContentLength int64         `json:"content_length"`
}

// DefaultLogConfig returns a default configuration for the logging middleware
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Console:     true,
		File:        true,
		LogFilePath: "logs/requests.log",
		IncludeBody: false,
		SkipPaths:   []string{"/health", "/metrics", "/uploads"},
	}
}

// sensitiveFields never reach the log file, whatever the request was.
var sensitiveFields = []string{"password", "current_password", "new_password", "token"}

// LoggingMiddleware creates a new logging middleware with the given configuration
func LoggingMiddleware(config ...LogConfig) fiber.Handler {
	cfg := DefaultLogConfig()
	if len(config) > 0 {
		cfg = config[0]
	}

	// Ensure logs directory exists
	if cfg.File {
		if err := os.MkdirAll("logs", 0755); err != nil {
			log.Printf("Error creating logs directory: %v\n", err)
		}
	}

	return func(c *fiber.Ctx) error {
		start := time.Now()

		for _, skipPath := range cfg.SkipPaths {
			if strings.HasPrefix(c.Path(), skipPath) {
				return c.Next()
			}
		}

		requestID := c.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set("X-Request-ID", requestID)

		var requestBody interface{}
		if cfg.IncludeBody && c.Method() != "GET" {
			requestBody = redactedBody(c.Body())
		}

		// Process request
		err := c.Next()

		logData := LogData{
			Timestamp:     start,
			Method:        c.Method(),
			Path:          c.Path(),
			URL:           c.OriginalURL(),
			Status:        c.Response().StatusCode(),
			Latency:       time.Since(start),
			IP:            c.IP(),
			UserAgent:     c.Get("User-Agent"),
			RequestID:     requestID,
			RequestBody:   requestBody,
			ContentLength: int64(len(c.Response().Body())),
		}

		// User info is only there when the route went through Verify
		if user, ok := c.Locals("user").(Models.User); ok {
			logData.UserID = user.ID
			logData.UserEmail = user.Email
			logData.UserRole = string(user.Role)
		}

		if err != nil {
			logData.Error = err.Error()
		}

		logRequest(cfg, logData)

		return err
	}
}

// redactedBody parses a JSON request body and blanks out credential
// fields. Non-JSON bodies are dropped rather than logged raw.
func redactedBody(body []byte) interface{} {
	if len(body) == 0 {
		return nil
	}
	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil
	}
	for _, field := range sensitiveFields {
		if _, ok := parsed[field]; ok {
			parsed[field] = "[REDACTED]"
		}
	}
	return parsed
}

// logRequest handles the actual logging based on configuration
func logRequest(cfg LogConfig, data LogData) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error encoding log entry: %v\n", err)
		return
	}
	message := string(jsonData)

	if cfg.Console {
		log.Printf("%s %s %d %s %s", data.Method, data.Path, data.Status, data.Latency, data.IP)
	}
	if cfg.File {
		logToFile(cfg.LogFilePath, message)
	}
}

// logToFile writes the log message to a file
func logToFile(filePath, message string) {
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Error opening log file: %v\n", err)
		return
	}
	defer file.Close()

	if len(message) > 0 && message[len(message)-1] != '\n' {
		message += "\n"
	}

	if _, err = file.WriteString(message); err != nil {
		log.Printf("Error writing to log file: %v\n", err)
	}
}

// RequestLogger creates a middleware that logs detailed request information
func RequestLogger() fiber.Handler {
	return LoggingMiddleware(LogConfig{
		Console:     true,
		File:        true,
		LogFilePath: "logs/requests.log",
		IncludeBody: false,
		SkipPaths:   []string{"/health", "/metrics", "/uploads", "/static"},
	})
}

// ErrorLogger creates a middleware that only logs errors
func ErrorLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		// Only log if there's an error or status code >= 400
		if err != nil || c.Response().StatusCode() >= 400 {
			logData := LogData{
				Timestamp: start,
				Method:    c.Method(),
				Path:      c.Path(),
				URL:       c.OriginalURL(),
				Status:    c.Response().StatusCode(),
				Latency:   time.Since(start),
				IP:        c.IP(),
				UserAgent: c.Get("User-Agent"),
			}
			if user, ok := c.Locals("user").(Models.User); ok {
				logData.UserID = user.ID
				logData.UserEmail = user.Email
				logData.UserRole = string(user.Role)
			}
			if err != nil {
				logData.Error = err.Error()
			}

			jsonData, _ := json.Marshal(logData)
			logToFile("logs/errors.log", string(jsonData))
		}

		return err
	}
}

// SimpleLogger provides a simple console logging middleware
func SimpleLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		var userStr string
		if user, ok := c.Locals("user").(Models.User); ok {
			userStr = fmt.Sprintf(" user:%s(%s)", user.ID, user.Email)
		}

		log.Printf(
			"[%s] %s %s %d %s %s%s",
			time.Now().Format("2006-01-02 15:04:05"),
			c.Method(),
			c.Path(),
			c.Response().StatusCode(),
			time.Since(start),
			c.IP(),
			userStr,
		)

		return err
	}
}
