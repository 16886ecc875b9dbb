package Controllers

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// LogEntry mirrors one line of logs/requests.log.
type LogEntry struct {
	Timestamp     time.Time     `json:"timestamp"`
	Method        string        `json:"method"`
	Path          string        `json:"path"`
	URL           string        `json:"url"`
	Status        int           `json:"status"`
	Latency       time.Duration `json:"latency"`
	IP            string        `json:"ip"`
	UserAgent     string        `json:"user_agent"`
	RequestID     string        `json:"request_id"`
	Error         string        `json:"error,omitempty"`
	UserID        string        `json:"user_id,omitempty"`
	UserEmail     string        `json:"user_email,omitempty"`
	UserRole      string        `json:"user_role,omitempty"`
	ContentLength int64         `json:"content_length"`
}

// LogGroup aggregates the entries of one route.
type LogGroup struct {
	Path        string     `json:"path"`
	Method      string     `json:"method"`
	Count       int        `json:"count"`
	AvgLatency  float64    `json:"avg_latency_ms"`
	MaxLatency  float64    `json:"max_latency_ms"`
	SuccessRate float64    `json:"success_rate"`
	Logs        []LogEntry `json:"logs"`
}

// parseDateRange reads date_from/date_to query params, defaulting to
// today.
func parseDateRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	fromStr := c.Query("date_from", "")
	toStr := c.Query("date_to", "")

	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := now

	if fromStr != "" {
		parsed, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return from, to, fmt.Errorf("invalid date_from format, use YYYY-MM-DD")
		}
		from = parsed
	}
	if toStr != "" {
		parsed, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return from, to, fmt.Errorf("invalid date_to format, use YYYY-MM-DD")
		}
		to = parsed.AddDate(0, 0, 1)
	}
	return from, to, nil
}

// readLogFile parses the JSON-lines request log within a date range.
// Lines that fail to parse are skipped.
func readLogFile(filePath string, from, to time.Time) ([]LogEntry, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var logs []LogEntry
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var entry LogEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if entry.Timestamp.After(from) && entry.Timestamp.Before(to) {
			logs = append(logs, entry)
		}
	}
	return logs, nil
}

// GetLogs serves the admin log viewer: entries grouped per route with
// latency and success statistics, filterable by path, method and
// status.
func GetLogs(c *fiber.Ctx) error {
	from, to, err := parseDateRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	logs, err := readLogFile("logs/requests.log", from, to)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read logs"})
	}

	pathFilter := strings.ToLower(c.Query("path"))
	methodFilter := strings.ToUpper(c.Query("method"))
	statusFilter, _ := strconv.Atoi(c.Query("status", "0"))

	groupMap := make(map[string]*LogGroup)
	for _, entry := range logs {
		if pathFilter != "" && !strings.Contains(strings.ToLower(entry.Path), pathFilter) {
			continue
		}
		if methodFilter != "" && entry.Method != methodFilter {
			continue
		}
		if statusFilter != 0 && entry.Status != statusFilter {
			continue
		}

		key := entry.Method + " " + entry.Path
		group, exists := groupMap[key]
		if !exists {
			group = &LogGroup{Path: entry.Path, Method: entry.Method}
			groupMap[key] = group
		}

		latencyMs := float64(entry.Latency.Microseconds()) / 1000.0
		group.AvgLatency = (group.AvgLatency*float64(group.Count) + latencyMs) / float64(group.Count+1)
		if latencyMs > group.MaxLatency {
			group.MaxLatency = latencyMs
		}
		success := 0.0
		if entry.Status < 400 {
			success = 1.0
		}
		group.SuccessRate = (group.SuccessRate*float64(group.Count) + success) / float64(group.Count+1)
		group.Count++
		group.Logs = append(group.Logs, entry)
	}

	groups := make([]LogGroup, 0, len(groupMap))
	totalLogs := 0
	for _, group := range groupMap {
		groups = append(groups, *group)
		totalLogs += group.Count
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})

	page, pageSize, _ := pagination(c)
	start := (page - 1) * pageSize
	if start > len(groups) {
		start = len(groups)
	}
	end := start + pageSize
	if end > len(groups) {
		end = len(groups)
	}

	return c.JSON(fiber.Map{
		"groups":       groups[start:end],
		"total_logs":   totalLogs,
		"total_groups": len(groups),
		"page":         page,
		"page_size":    pageSize,
		"date_from":    from,
		"date_to":      to,
	})
}

// GetLogStats summarizes traffic for the admin dashboard widgets.
func GetLogStats(c *fiber.Ctx) error {
	from, to, err := parseDateRange(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	logs, err := readLogFile("logs/requests.log", from, to)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to read logs"})
	}

	var totalLatencyMs float64
	statusCounts := map[string]int{}
	roleCounts := map[string]int{}
	errorCount := 0
	for _, entry := range logs {
		totalLatencyMs += float64(entry.Latency.Microseconds()) / 1000.0
		statusCounts[strconv.Itoa(entry.Status/100*100)]++
		if entry.UserRole != "" {
			roleCounts[entry.UserRole]++
		}
		if entry.Status >= 400 {
			errorCount++
		}
	}

	avgLatency := 0.0
	if len(logs) > 0 {
		avgLatency = totalLatencyMs / float64(len(logs))
	}

	return c.JSON(fiber.Map{
		"total_requests":   len(logs),
		"error_count":      errorCount,
		"avg_latency_ms":   avgLatency,
		"status_breakdown": statusCounts,
		"role_breakdown":   roleCounts,
		"date_from":        from,
		"date_to":          to,
	})
}
