package Slack

import (
	"Inspecta/Models"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/slack-go/slack"
)

// client is nil when SLACK_BOT_TOKEN is unset; every send becomes a
// no-op then.
var client *slack.Client

// InitSlack wires the ops channel from the environment.
func InitSlack() {
	token := os.Getenv("SLACK_BOT_TOKEN")
	if token == "" {
		log.Println("SLACK_BOT_TOKEN not set, Slack notifications disabled")
		return
	}
	client = slack.New(token)
	log.Println("Slack client initialized")
}

// channelID is where ops messages land.
func channelID() string {
	return os.Getenv("SLACK_CHANNEL_ID")
}

// post sends one message to the ops channel, best-effort.
func post(text string) {
	if client == nil || channelID() == "" {
		return
	}
	_, _, err := client.PostMessage(channelID(), slack.MsgOptionText(text, false))
	if err != nil {
		log.Printf("Failed to post to Slack: %v", err)
	}
}

// NotifyFailedInspection alerts the ops channel about a failed vehicle
// so reinspection capacity can be planned.
func NotifyFailedInspection(plate string, totalScore int, reason string) {
	text := fmt.Sprintf(":red_circle: Inspection FAILED - %s scored %d", plate, totalScore)
	if reason != "" {
		text += " (" + reason + ")"
	}
	post(text)
}

// PostDailySummary reports yesterday's completed inspections to the ops
// channel. Called by the scheduler every morning.
func PostDailySummary() {
	if client == nil || channelID() == "" {
		return
	}

	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var total, passed int64
	Models.DB.Model(&Models.InspectionResult{}).
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).Count(&total)
	Models.DB.Model(&Models.InspectionResult{}).
		Where("created_at >= ? AND created_at < ? AND passed = ?", dayStart, dayEnd, true).Count(&passed)

	var booked int64
	Models.DB.Model(&Models.Appointment{}).
		Where("created_at >= ? AND created_at < ?", dayStart, dayEnd).Count(&booked)

	text := fmt.Sprintf(
		":clipboard: Inspection summary for %s\n• Completed: %d (passed %d, failed %d)\n• New bookings: %d",
		dayStart.Format("Mon 02 Jan"), total, passed, total-passed, booked,
	)
	post(text)
}
