package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"campusevents/internal/domain"
)

var rosterHeader = []string{"name", "email", "department", "registered_at"}

type rosterService struct {
	api   domain.EventsAPI
	email domain.EmailService
}

// NewRosterService returns a RosterService. email may be nil when no mailer is configured;
// EmailExport then fails.
func NewRosterService(api domain.EventsAPI, email domain.EmailService) domain.RosterService {
	return &rosterService{api: api, email: email}
}

func (s *rosterService) Attendees(ctx context.Context, eventID string) ([]domain.Attendee, error) {
	if eventID == "" {
		return nil, domain.ErrEventNotFound
	}
	attendees, err := s.api.GetAttendees(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if attendees == nil {
		attendees = []domain.Attendee{}
	}
	return attendees, nil
}

func (s *rosterService) ExportCSV(w io.Writer, attendees []domain.Attendee) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rosterHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, a := range attendees {
		registeredAt := ""
		if !a.RegisteredAt.IsZero() {
			registeredAt = a.RegisteredAt.UTC().Format(time.RFC3339)
		}
		if err := cw.Write([]string{a.Name, a.Email, a.Department, registeredAt}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func (s *rosterService) EmailExport(ctx context.Context, eventTitle, to string, attendees []domain.Attendee) error {
	if s.email == nil {
		return fmt.Errorf("email export: no mailer configured")
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("email export: recipient is required")
	}
	var buf strings.Builder
	if err := s.ExportCSV(&buf, attendees); err != nil {
		return err
	}
	return s.email.SendRosterExport(ctx, &domain.RosterExportEmailData{
		Email:         to,
		EventTitle:    eventTitle,
		AttendeeCount: len(attendees),
		Attendees:     attendees,
		CSV:           buf.String(),
	})
}
