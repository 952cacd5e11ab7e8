package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/firelater/firelater/internal/engine/model"
	"github.com/firelater/firelater/internal/engine/repo"
	"github.com/firelater/firelater/pkg/ctx"
	"github.com/firelater/firelater/pkg/metrics"
)

/**
 * @file: service_calendar.go
 * @description: iCalendar feed rendering
 */

const (
	icalProdId = "-//FireLater//OnCall Engine//EN"
	// DefaultLookbackDays / DefaultLookaheadDays bound the feed window
	// when the caller gives none.
	DefaultLookbackDays  = 30
	DefaultLookaheadDays = 90

	alarmTrigger = "-PT15M"
	icalTimefmt  = "20060102T150405Z"
)

type CalendarService struct {
	ScheduleRepo  repo.IScheduleRepository
	ShiftRepo     repo.IShiftRepository
	DirectoryRepo repo.IDirectoryRepository
	TenantId      string
}

func NewCalendarService(c *ctx.Context, schema, tenantId string) *CalendarService {
	return &CalendarService{
		ScheduleRepo:  repo.NewScheduleRepo(c, schema),
		ShiftRepo:     repo.NewShiftRepo(c, schema),
		DirectoryRepo: repo.NewDirectoryRepo(c, schema),
		TenantId:      tenantId,
	}
}

// RenderFeed builds the iCalendar document for a schedule. filterUserId
// narrows the feed to one user's shifts; zero window bounds fall back to
// the defaults around now.
func (s *CalendarService) RenderFeed(scheduleId, filterUserId string, from, to time.Time) (string, error) {
	schedule, err := s.ScheduleRepo.GetScheduleById(scheduleId)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	if from.IsZero() {
		from = now.AddDate(0, 0, -DefaultLookbackDays)
	}
	if to.IsZero() {
		to = now.AddDate(0, 0, DefaultLookaheadDays)
	}

	shifts, err := s.ShiftRepo.GetShiftsInWindow(scheduleId, from, to)
	if err != nil {
		return "", err
	}

	userIds := make([]string, 0, len(shifts))
	seen := map[string]bool{}
	for _, sh := range shifts {
		if !seen[sh.UserId] {
			seen[sh.UserId] = true
			userIds = append(userIds, sh.UserId)
		}
	}
	users, err := s.DirectoryRepo.ListUsersByIds(userIds)
	if err != nil {
		return "", err
	}
	byId := make(map[string]*model.User, len(users))
	for _, u := range users {
		byId[u.UserId] = u
	}

	var b strings.Builder
	writeLine(&b, "BEGIN:VCALENDAR")
	writeLine(&b, "VERSION:2.0")
	writeLine(&b, "PRODID:"+icalProdId)
	writeLine(&b, "CALSCALE:GREGORIAN")
	writeLine(&b, "METHOD:PUBLISH")
	writeLine(&b, "X-WR-CALNAME:"+escapeText("On-Call: "+schedule.Name))
	writeLine(&b, "X-WR-TIMEZONE:"+schedule.Timezone)

	stamp := now.Format(icalTimefmt)
	for _, sh := range shifts {
		if filterUserId != "" && sh.UserId != filterUserId {
			continue
		}
		s.writeEvent(&b, schedule, sh, byId[sh.UserId], stamp)
	}

	writeLine(&b, "END:VCALENDAR")
	metrics.CalendarExportsTotal.Inc()
	return b.String(), nil
}

func (s *CalendarService) writeEvent(b *strings.Builder, schedule *model.Schedule,
	sh *model.Shift, user *model.User, stamp string) {
	summary := "On-Call: " + schedule.Name
	name := sh.UserId
	if user != nil && user.Username != "" {
		name = user.Username
	}
	switch sh.ShiftType {
	case model.ShiftTypeOverride:
		summary = fmt.Sprintf("On-Call (Override): %s - %s", schedule.Name, name)
	case model.ShiftTypeSecondary:
		summary = fmt.Sprintf("On-Call (Secondary): %s - %s", schedule.Name, name)
	default:
		summary = fmt.Sprintf("On-Call: %s - %s", schedule.Name, name)
	}

	var desc strings.Builder
	desc.WriteString("Schedule: " + schedule.Name)
	if user != nil && user.Email != "" {
		desc.WriteString("\nContact: " + user.Email)
	}
	if sh.ShiftType == model.ShiftTypeOverride && sh.Reason != "" {
		desc.WriteString("\nReason: " + sh.Reason)
	}

	writeLine(b, "BEGIN:VEVENT")
	// the uid is derived from the shift id, so re-exports update events
	// in place instead of duplicating them
	writeLine(b, fmt.Sprintf("UID:%s@%s.firelater", sh.ShiftId, s.TenantId))
	writeLine(b, "DTSTAMP:"+stamp)
	writeLine(b, "DTSTART:"+sh.StartTime.UTC().Format(icalTimefmt))
	writeLine(b, "DTEND:"+sh.EndTime.UTC().Format(icalTimefmt))
	writeLine(b, "SUMMARY:"+escapeText(summary))
	writeLine(b, "DESCRIPTION:"+escapeText(desc.String()))
	writeLine(b, "STATUS:CONFIRMED")
	writeLine(b, "TRANSP:TRANSPARENT")
	writeLine(b, "BEGIN:VALARM")
	writeLine(b, "ACTION:DISPLAY")
	writeLine(b, "DESCRIPTION:"+escapeText("Upcoming on-call: "+schedule.Name))
	writeLine(b, "TRIGGER:"+alarmTrigger)
	writeLine(b, "END:VALARM")
	writeLine(b, "END:VEVENT")
}

// escapeText escapes per RFC 5545: backslash, semicolon, comma and
// newlines.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, ";", `\;`)
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, "\r\n", `\n`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}

// writeLine folds content lines longer than 75 octets with a CRLF plus
// space continuation, then terminates with CRLF.
func writeLine(b *strings.Builder, line string) {
	const limit = 75
	for len(line) > limit {
		cut := limit
		// never split a utf-8 sequence
		for cut > 0 && !isUTF8Start(line[cut]) {
			cut--
		}
		if cut == 0 {
			cut = limit
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

func isUTF8Start(c byte) bool {
	return c&0xC0 != 0x80
}
