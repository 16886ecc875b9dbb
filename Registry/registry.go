package Registry

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly"
	"github.com/gofiber/fiber/v2"
)

// VehicleInfo is what the national registry portal publishes about a
// plate.
type VehicleInfo struct {
	PlateNumber string `json:"plate_number"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	Year        int    `json:"year"`
}

// Enabled reports whether a registry portal is configured.
func Enabled() bool {
	return os.Getenv("REGISTRY_URL") != ""
}

// newCollector builds the crawler used against the registry portal.
func newCollector() *colly.Collector {
	collector := colly.NewCollector(
		colly.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
	)
	collector.SetRequestTimeout(20 * time.Second)
	return collector
}

// Lookup crawls the registry's plate detail page. The portal renders a
// key/value table; rows are matched by their label cell.
func Lookup(plate string) (*VehicleInfo, error) {
	base := os.Getenv("REGISTRY_URL")
	if base == "" {
		return nil, fmt.Errorf("registry lookup is not configured")
	}

	info := &VehicleInfo{PlateNumber: plate}
	found := false

	collector := newCollector()
	collector.OnHTML("table.vehicle-detail", func(h *colly.HTMLElement) {
		found = true
		h.DOM.Find("tr").Each(func(_ int, row *goquery.Selection) {
			label := strings.ToLower(strings.TrimSpace(row.Find("th").Text()))
			value := strings.TrimSpace(row.Find("td").Text())
			switch {
			case strings.Contains(label, "make") || strings.Contains(label, "marca"):
				info.Make = value
			case strings.Contains(label, "model") || strings.Contains(label, "modelo"):
				info.Model = value
			case strings.Contains(label, "year") || strings.Contains(label, "año"):
				if year, err := strconv.Atoi(value); err == nil {
					info.Year = year
				}
			}
		})
	})

	var visitErr error
	collector.OnError(func(r *colly.Response, err error) {
		visitErr = err
	})

	url := fmt.Sprintf("%s/vehicles/%s", strings.TrimRight(base, "/"), plate)
	if err := collector.Visit(url); err != nil {
		return nil, fmt.Errorf("registry request failed: %w", err)
	}
	collector.Wait()

	if visitErr != nil {
		return nil, fmt.Errorf("registry request failed: %w", visitErr)
	}
	if !found {
		return nil, fmt.Errorf("plate %s not found in the registry", plate)
	}

	log.Printf("Registry lookup %s: %s %s %d", plate, info.Make, info.Model, info.Year)
	return info, nil
}

// LookupHandler serves the admin's manual registry query.
func LookupHandler(c *fiber.Ctx) error {
	if !Enabled() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Registry lookup is not configured",
		})
	}

	plate := strings.ToUpper(strings.TrimSpace(c.Params("plate")))
	if plate == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "A plate number is required"})
	}

	info, err := Lookup(plate)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(info)
}
