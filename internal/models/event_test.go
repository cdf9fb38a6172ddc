package models

import "testing"

func TestEvent_IsPublished(t *testing.T) {
	tests := []struct {
		status EventStatus
		want   bool
	}{
		{StatusDraft, false},
		{StatusPublished, true},
		{StatusCancelled, false},
	}

	for _, tt := range tests {
		e := &Event{Status: tt.status}
		if got := e.IsPublished(); got != tt.want {
			t.Errorf("IsPublished() for %s = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestEvent_PriceInCurrency(t *testing.T) {
	e := Event{Price: 1999}
	if got := e.PriceInCurrency(); got != 19.99 {
		t.Errorf("PriceInCurrency() = %v, want 19.99", got)
	}
}

func TestEventCreateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     EventCreateRequest
		wantErr bool
	}{
		{"valid", EventCreateRequest{Title: "Go Meetup", Price: 1500, Status: StatusPublished}, false},
		{"free event", EventCreateRequest{Title: "Open Day", Status: StatusDraft}, false},
		{"missing title", EventCreateRequest{Price: 100, Status: StatusPublished}, true},
		{"negative price", EventCreateRequest{Title: "x", Price: -1, Status: StatusPublished}, true},
		{"unknown status", EventCreateRequest{Title: "x", Status: "archived"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsValidation(err) {
				t.Errorf("Validate() returned %T, want a validation error", err)
			}
		})
	}
}
