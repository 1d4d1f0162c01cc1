package dto

import (
	"time"
)

// Log ids are MD5 hashes of the log line.

type LogListResponse struct {
	Id        string    `json:"id"`
	Level     string    `json:"level"`
	Module    string    `json:"module"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type LogDetailResponse struct {
	LogListResponse
	Details map[string]interface{} `json:"details"`
}
