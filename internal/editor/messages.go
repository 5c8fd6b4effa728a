package editor

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates inbound messages from the rendering surface.
type Kind string

const (
	KindSave    Kind = "save"
	KindPrint   Kind = "print"
	KindPreview Kind = "preview"
)

// Message is one inbound message. The concrete types are SaveMessage,
// PrintMessage and PreviewMessage.
type Message interface {
	Kind() Kind
}

// SaveMessage asks the host to overwrite the file with Text.
type SaveMessage struct {
	Text string `json:"text"`
}

// PrintMessage asks the host to materialise a print document.
type PrintMessage struct {
	Content string `json:"content"`
	IsHTML  bool   `json:"isHtml"`
}

// PreviewMessage carries the editor text after an edit or a preview
// toggle. Seq increases per surface so stale replies can be dropped.
type PreviewMessage struct {
	Text string `json:"text"`
	Seq  int64  `json:"seq"`
}

func (SaveMessage) Kind() Kind    { return KindSave }
func (PrintMessage) Kind() Kind   { return KindPrint }
func (PreviewMessage) Kind() Kind { return KindPreview }

// DecodeMessage parses a JSON message and returns its concrete type.
func DecodeMessage(data []byte) (Message, error) {
	var env struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("invalid message format: %w", err)
	}

	var msg Message
	var err error
	switch env.Type {
	case KindSave:
		var m SaveMessage
		err = json.Unmarshal(data, &m)
		msg = m
	case KindPrint:
		var m PrintMessage
		err = json.Unmarshal(data, &m)
		msg = m
	case KindPreview:
		var m PreviewMessage
		err = json.Unmarshal(data, &m)
		msg = m
	default:
		return nil, fmt.Errorf("unknown message type: %q", env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s message: %w", env.Type, err)
	}
	return msg, nil
}

// Event is one outbound message to the rendering surface.
type Event interface {
	eventType() string
}

// DocumentEvent replaces the whole surface document.
type DocumentEvent struct {
	HTML  string `json:"html"`
	Theme string `json:"theme"`
}

// NoticeLevel is the severity of a NoticeEvent.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// NoticeEvent is a transient user-facing notification.
type NoticeEvent struct {
	Level NoticeLevel `json:"level"`
	Text  string      `json:"text"`
}

// PreviewEvent carries rendered preview markup for PreviewMessage Seq.
type PreviewEvent struct {
	HTML   string `json:"html"`
	Seq    int64  `json:"seq"`
	Failed int    `json:"failed,omitempty"`
}

// PrintedEvent reports the transient document handed to the host viewer.
type PrintedEvent struct {
	Path string `json:"path"`
}

func (DocumentEvent) eventType() string { return "document" }
func (NoticeEvent) eventType() string   { return "notice" }
func (PreviewEvent) eventType() string  { return "preview" }
func (PrintedEvent) eventType() string  { return "printed" }

func (e DocumentEvent) MarshalJSON() ([]byte, error) {
	type alias DocumentEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{e.eventType(), alias(e)})
}

func (e NoticeEvent) MarshalJSON() ([]byte, error) {
	type alias NoticeEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{e.eventType(), alias(e)})
}

func (e PreviewEvent) MarshalJSON() ([]byte, error) {
	type alias PreviewEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{e.eventType(), alias(e)})
}

func (e PrintedEvent) MarshalJSON() ([]byte, error) {
	type alias PrintedEvent
	return json.Marshal(struct {
		Type string `json:"type"`
		alias
	}{e.eventType(), alias(e)})
}
