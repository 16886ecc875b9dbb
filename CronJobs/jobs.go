package CronJobs

import (
	"Inspecta/Models"
	"Inspecta/Slack"
	"Inspecta/email"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Station opening hours: hourly slots from 08:00 up to (not including)
// 14:00, weekdays only.
const (
	slotFirstHour = 8
	slotLastHour  = 14
	slotHorizon   = 30 // days of calendar kept filled ahead
)

// Scheduler runs the station's recurring jobs.
type Scheduler struct {
	cronScheduler *cron.Cron
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		cronScheduler: cron.New(cron.WithSeconds()),
	}
}

// Start registers and launches all jobs.
func (s *Scheduler) Start() error {
	jobs := []struct {
		schedule string
		name     string
		run      func()
	}{
		{"0 0 1 * * *", "slot top-up", s.topUpSlots},
		{"0 0 * * * *", "appointment reminders", s.sendReminders},
		{"0 30 2 * * *", "session purge", s.purgeSessions},
		{"0 0 7 * * *", "daily Slack summary", Slack.PostDailySummary},
	}

	for _, job := range jobs {
		job := job
		_, err := s.cronScheduler.AddFunc(job.schedule, func() {
			log.Printf("Running scheduled job: %s", job.name)
			job.run()
		})
		if err != nil {
			return fmt.Errorf("error scheduling %s: %w", job.name, err)
		}
	}

	s.cronScheduler.Start()
	log.Println("Job scheduler started")
	return nil
}

// Stop terminates the scheduler.
func (s *Scheduler) Stop() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
		log.Println("Job scheduler stopped")
	}
}

// topUpSlots keeps the booking calendar filled for the rolling horizon.
// Existing slots are left alone, so manual edits survive.
func (s *Scheduler) topUpSlots() {
	now := time.Now()
	created := 0

	for day := 0; day < slotHorizon; day++ {
		date := now.AddDate(0, 0, day)
		if date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
			continue
		}
		for hour := slotFirstHour; hour < slotLastHour; hour++ {
			start := time.Date(date.Year(), date.Month(), date.Day(), hour, 0, 0, 0, date.Location())
			if start.Before(now) {
				continue
			}
			end := start.Add(time.Hour)

			var overlapping int64
			Models.DB.Model(&Models.AvailabilitySlot{}).
				Where("start_time < ? AND end_time > ?", end, start).
				Count(&overlapping)
			if overlapping > 0 {
				continue
			}

			slot := Models.AvailabilitySlot{StartTime: start, EndTime: end}
			if err := Models.DB.Create(&slot).Error; err != nil {
				log.Printf("Failed to create slot %s: %v", start, err)
				continue
			}
			created++
		}
	}

	if created > 0 {
		log.Printf("Slot top-up created %d slots", created)
	}
}

// sendReminders mails owners whose confirmed appointment falls in the
// next 24-25 hour window. Run hourly, each appointment lands in the
// window exactly once.
func (s *Scheduler) sendReminders() {
	windowStart := time.Now().Add(24 * time.Hour)
	windowEnd := windowStart.Add(time.Hour)

	var appointments []Models.Appointment
	err := Models.DB.Preload("Vehicle").Preload("Vehicle.Owner").
		Where("status = ? AND date_time >= ? AND date_time < ?",
			Models.AppointmentConfirmed, windowStart, windowEnd).
		Find(&appointments).Error
	if err != nil {
		log.Printf("Failed to load appointments for reminders: %v", err)
		return
	}

	for _, appointment := range appointments {
		owner := appointment.Vehicle.Owner
		if owner.Email == "" {
			continue
		}
		email.SendAppointmentReminder(owner.Email, appointment.Vehicle.PlateNumber, appointment.DateTime)
	}

	if len(appointments) > 0 {
		log.Printf("Sent %d appointment reminders", len(appointments))
	}
}

// purgeSessions drops session rows that can never authenticate again.
func (s *Scheduler) purgeSessions() {
	result := Models.DB.Where("expires_at < ? OR revoked = ?", time.Now(), true).
		Delete(&Models.UserSession{})
	if result.Error != nil {
		log.Printf("Failed to purge sessions: %v", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		log.Printf("Purged %d dead sessions", result.RowsAffected)
	}
}
