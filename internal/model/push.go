package model

import "encoding/json"

const PushTypeNotification = "notification"

type PushEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}
