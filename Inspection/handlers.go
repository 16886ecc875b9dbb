package Inspection

import (
	"github.com/gofiber/fiber/v2"
)

// PreviewRequest carries draft scores from the scoring form. Scores are
// clamped exactly like the form clamps them, so the preview always agrees
// with what a submission would record.
type PreviewRequest struct {
	ItemScores []int `json:"item_scores"`
}

// PreviewHandler computes the verdict for a draft score sheet without
// recording anything. The scoring UI polls it to show a live pass/fail
// indicator while the inspector types.
func PreviewHandler(c *fiber.Ctx) error {
	var req PreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.ItemScores) > CheckItemCount {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Too many item scores, the checklist has 8 items",
		})
	}

	sheet := NewScoreSheet()
	for i, score := range req.ItemScores {
		sheet.SetScore(i+1, score)
	}

	return c.Status(fiber.StatusOK).JSON(sheet.Verdict())
}
