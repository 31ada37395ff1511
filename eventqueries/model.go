package eventqueries

import "time"

// Event is a scheduled event in a city. Its attendees are owned by the event and have no identity of their own.
type Event struct {
	ID        int64        `json:"id"`
	City      string       `json:"city"`
	EventDate CalendarDate `json:"eventDate"`
	EventTime TimeOfDay    `json:"eventTime"`
	Attendees []Attendee   `json:"attendees"`
}

// Attendee is a value embedded in exactly one Event.
type Attendee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// EventDateTime combines EventDate and EventTime into one instant in UTC.
func (e Event) EventDateTime() time.Time {
	return e.EventDate.ToDateTime(e.EventTime)
}

// AttendeeCount returns the number of owned attendees.
func (e Event) AttendeeCount() int {
	return len(e.Attendees)
}

// CityDateTime is the projection of an Event onto its city and combined date-time.
type CityDateTime struct {
	City          string    `json:"city"`
	EventDateTime time.Time `json:"eventDateTime"`
}

// CityAttendeeCount is the projection of an Event onto its city and the number of its attendees.
type CityAttendeeCount struct {
	City          string `json:"city"`
	AttendeeCount int    `json:"attendeeCount"`
}
