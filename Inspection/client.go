package Inspection

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// APIClient submits completed inspections to the backend. It implements
// Submitter over the completion endpoint and turns every remote failure
// into a SubmissionRejectedError with a user-readable message.
type APIClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

func NewAPIClient(baseURL, token string) *APIClient {
	return &APIClient{
		BaseURL: baseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type completeResponse struct {
	Message string `json:"message"`
	Result  struct {
		ID             string `json:"id"`
		TotalScore     int    `json:"total_score"`
		Passed         bool   `json:"passed"`
		HasFailingItem bool   `json:"has_failing_item"`
	} `json:"result"`
}

// CompleteAppointment POSTs the result payload to the completion
// endpoint. One call creates exactly one inspection result server-side.
func (c *APIClient) CompleteAppointment(appointmentID string, payload ResultPayload) (*Receipt, error) {
	url := fmt.Sprintf("%s/api/v1/appointments/%s/complete", c.BaseURL, appointmentID)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result payload: %w", err)
	}

	req, err := http.NewRequest("POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Printf("Result submission failed for appointment %s: %v", appointmentID, err)
		return nil, &SubmissionRejectedError{Message: "could not reach the inspection service: " + err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &SubmissionRejectedError{Message: "failed to read response: " + err.Error()}
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &SubmissionRejectedError{Message: remoteErrorMessage(resp.StatusCode, data)}
	}

	var decoded completeResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, &SubmissionRejectedError{Message: "unexpected response from the inspection service"}
	}

	return &Receipt{
		ResultID:   decoded.Result.ID,
		TotalScore: decoded.Result.TotalScore,
		Passed:     decoded.Result.Passed,
	}, nil
}

// remoteErrorMessage extracts the service's error detail. The API answers
// with {"error": ...}; older deployments used {"detail": ...}. Falls back
// to the HTTP status when neither is present.
func remoteErrorMessage(status int, body []byte) string {
	var parsed struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Detail != "" {
			return parsed.Detail
		}
	}
	return fmt.Sprintf("submission rejected with status %d", status)
}
