// Package handoff turns a chosen store and position into an AI interview
// session: a chat URL for the visitor, a Kafka event and an application record
// on the career API.
package handoff

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultChatHost = "chat.oneplace.hr"
	DefaultLanguage = "mn"
	InterviewAI     = "ai"
	SourceCareer    = "career_page"
)

// Request is what the visitor chose.
type Request struct {
	CompanyID     string `json:"companyId" validate:"required"`
	JobID         string `json:"jobId" validate:"required"`
	StoreID       string `json:"storeId" validate:"required"`
	StoreName     string `json:"storeName"`
	PositionTitle string `json:"positionTitle"`
	Language      string `json:"language" validate:"omitempty,oneof=mn en"`
}

// Session is the hand-off record shared with the chat application.
type Session struct {
	EventID       string    `json:"eventId"`
	InterviewType string    `json:"interviewType"`
	CompanyID     string    `json:"companyId"`
	JobID         string    `json:"jobId"`
	StoreID       string    `json:"storeId"`
	StoreName     string    `json:"storeName,omitempty"`
	PositionTitle string    `json:"positionTitle,omitempty"`
	Language      string    `json:"language"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"`
	ChatURL       string    `json:"chatUrl"`
}

// ChatURL is https://<host>/chat/<companyId>/<jobId>.
func ChatURL(host, companyID, jobID string) string {
	host = strings.TrimSuffix(strings.TrimSpace(host), "/")
	if host == "" {
		host = DefaultChatHost
	}
	u := url.URL{Scheme: "https", Host: host, Path: "/"}
	return u.JoinPath("chat", companyID, jobID).String()
}

// NewSession stamps a request with an event id, time and chat URL.
func NewSession(chatHost string, req Request, now time.Time) (Session, error) {
	if req.CompanyID == "" || req.JobID == "" {
		return Session{}, fmt.Errorf("handoff: company and job ids are required")
	}
	lang := req.Language
	if lang == "" {
		lang = DefaultLanguage
	}
	return Session{
		EventID:       uuid.NewString(),
		InterviewType: InterviewAI,
		CompanyID:     req.CompanyID,
		JobID:         req.JobID,
		StoreID:       req.StoreID,
		StoreName:     req.StoreName,
		PositionTitle: req.PositionTitle,
		Language:      lang,
		Timestamp:     now.UTC(),
		Source:        SourceCareer,
		ChatURL:       ChatURL(chatHost, req.CompanyID, req.JobID),
	}, nil
}

// applicantData is the applicant_data object the applications endpoint stores.
type applicantData struct {
	InterviewType string      `json:"interview_type"`
	SessionData   sessionData `json:"session_data"`
}

type sessionData struct {
	CompanyID     string    `json:"companyId"`
	JobID         string    `json:"jobId"`
	StoreID       string    `json:"storeId"`
	StoreName     string    `json:"storeName"`
	PositionTitle string    `json:"positionTitle"`
	Language      string    `json:"language"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"`
	ChatURL       string    `json:"chatUrl"`
}

func (s Session) applicantData() applicantData {
	return applicantData{
		InterviewType: s.InterviewType,
		SessionData: sessionData{
			CompanyID:     s.CompanyID,
			JobID:         s.JobID,
			StoreID:       s.StoreID,
			StoreName:     s.StoreName,
			PositionTitle: s.PositionTitle,
			Language:      s.Language,
			Timestamp:     s.Timestamp,
			Source:        s.Source,
			ChatURL:       s.ChatURL,
		},
	}
}
