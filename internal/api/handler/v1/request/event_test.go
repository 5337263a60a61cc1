package request

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validCreate() CreateEventRequest {
	end := "21:00"
	capacity := 10
	return CreateEventRequest{
		Title:           "Clean-up",
		Date:            "2026-07-01",
		StartTime:       "18:00",
		EndTime:         &end,
		MaxParticipants: &capacity,
	}
}

func TestCreateEventRequestValidate(t *testing.T) {
	blank := ""
	badClock := "9pm"
	negative := -1

	tests := []struct {
		name    string
		mutate  func(r *CreateEventRequest)
		wantErr bool
	}{
		{"valid", func(r *CreateEventRequest) {}, false},
		{"no end, no cap", func(r *CreateEventRequest) { r.EndTime = nil; r.MaxParticipants = nil }, false},
		{"missing title", func(r *CreateEventRequest) { r.Title = "" }, true},
		{"blank title", func(r *CreateEventRequest) { r.Title = "   " }, true},
		{"multi-line title", func(r *CreateEventRequest) { r.Title = "a\nb" }, true},
		{"slashed date", func(r *CreateEventRequest) { r.Date = "01/07/2026" }, true},
		{"month 13", func(r *CreateEventRequest) { r.Date = "2026-13-01" }, true},
		{"missing start", func(r *CreateEventRequest) { r.StartTime = "" }, true},
		{"hour 24", func(r *CreateEventRequest) { r.StartTime = "24:00" }, true},
		{"empty end", func(r *CreateEventRequest) { r.EndTime = &blank }, true},
		{"bad end", func(r *CreateEventRequest) { r.EndTime = &badClock }, true},
		{"negative cap", func(r *CreateEventRequest) { r.MaxParticipants = &negative }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate()
			tt.mutate(&req)
			if tt.wantErr {
				assert.Error(t, req.Validate())
			} else {
				assert.NoError(t, req.Validate())
			}
		})
	}
}

func TestListEventsQueryValidate(t *testing.T) {
	assert.NoError(t, (&ListEventsQuery{}).Validate())
	assert.NoError(t, (&ListEventsQuery{Page: 3, PageSize: 100}).Validate())
	assert.Error(t, (&ListEventsQuery{PageSize: 101}).Validate())
	assert.Error(t, (&ListEventsQuery{Page: -1}).Validate())
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("7d1f3c0e-4b1a-4c53-9d0c-2f51b6a1e001"))
	assert.Error(t, ValidateID(""))
	assert.Error(t, ValidateID("42"))
}

func TestScanRequestValidate(t *testing.T) {
	assert.NoError(t, (&ScanRequest{Payload: "a.b.c"}).Validate())
	assert.Error(t, (&ScanRequest{}).Validate())
}
