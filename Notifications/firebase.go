package Notifications

import (
	"Inspecta/Models"
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Global Firebase client, nil when push notifications are not
// configured.
var firebaseClient *messaging.Client
var ctx = context.Background()

// InitFirebase sets up Cloud Messaging from the service account file in
// GOOGLE_APPLICATION_CREDENTIALS. Without credentials pushes are simply
// skipped; nothing else depends on Firebase.
func InitFirebase() error {
	credentials := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	if credentials == "" {
		log.Println("GOOGLE_APPLICATION_CREDENTIALS not set, push notifications disabled")
		return nil
	}

	opt := option.WithCredentialsFile(credentials)
	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return fmt.Errorf("error initializing Firebase app: %v", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return fmt.Errorf("error getting Messaging client: %v", err)
	}

	firebaseClient = client
	log.Println("Firebase initialized successfully")
	return nil
}

// Enabled reports whether push sending is configured.
func Enabled() bool {
	return firebaseClient != nil
}

// SendToUser pushes a notification to every device the user registered.
// Best-effort: failures are logged and dead tokens removed, the caller
// never sees an error.
func SendToUser(userID, title, body string) {
	if firebaseClient == nil {
		return
	}

	tokens, err := Models.TokensForUser(userID)
	if err != nil {
		log.Printf("Failed to load device tokens for %s: %v", userID, err)
		return
	}

	for _, token := range tokens {
		message := &messaging.Message{
			Token: token,
			Notification: &messaging.Notification{
				Title: title,
				Body:  body,
			},
			Android: &messaging.AndroidConfig{
				Priority: "high",
				Notification: &messaging.AndroidNotification{
					Sound: "default",
				},
			},
		}

		if _, err := firebaseClient.Send(ctx, message); err != nil {
			log.Printf("Failed to push to %s: %v", userID, err)
			if messaging.IsRegistrationTokenNotRegistered(err) {
				Models.DB.Where("value = ?", token).Delete(&Models.DeviceToken{})
			}
		}
	}
}
