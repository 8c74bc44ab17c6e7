package handlers

import (
	"time"

	"github.com/zeelus/server/internal/domain/bookings"
	"github.com/zeelus/server/internal/domain/events"
	"github.com/zeelus/server/internal/domain/users"
	"github.com/zeelus/server/internal/validation"
)

// userView never carries the password hash.
type userView struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	DOB        string    `json:"dob"`
	Age        int       `json:"age"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"isVerified"`
	ProfileImg string    `json:"profileImg"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type summaryView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type eventView struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Date        string      `json:"date"`
	StartTime   string      `json:"startTime"`
	EndTime     string      `json:"endTime"`
	IsDeleted   bool        `json:"isDeleted"`
	Creator     summaryView `json:"creator"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type bookedEventView struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Creator     string `json:"creator"`
}

type bookingView struct {
	ID        string          `json:"id"`
	User      summaryView     `json:"user"`
	Event     bookedEventView `json:"event"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

func newUserView(u users.User, now time.Time) userView {
	return userView{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		DOB:        u.DOB.UTC().Format(validation.DateLayout),
		Age:        u.Age(now),
		Role:       u.Role,
		IsVerified: u.IsVerified,
		ProfileImg: u.ProfileImg,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func newSummaryView(s users.Summary) summaryView {
	return summaryView{ID: s.ID, Name: s.Name, Email: s.Email}
}

func newEventView(e events.Event) eventView {
	creator := e.Creator
	if creator.ID == "" {
		creator.ID = e.CreatorID
	}
	return eventView{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Date:        e.Date.UTC().Format(validation.DateLayout),
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		IsDeleted:   e.IsDeleted,
		Creator:     newSummaryView(creator),
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func newEventViews(items []events.Event) []eventView {
	out := make([]eventView, 0, len(items))
	for _, e := range items {
		out = append(out, newEventView(e))
	}
	return out
}

func newBookingView(b bookings.Booking) bookingView {
	user := b.User
	if user.ID == "" {
		user.ID = b.UserID
	}
	eventID := b.Event.ID
	if eventID == "" {
		eventID = b.EventID
	}
	view := bookingView{
		ID:   b.ID,
		User: newSummaryView(user),
		Event: bookedEventView{
			ID:          eventID,
			Title:       b.Event.Title,
			Description: b.Event.Description,
			StartTime:   b.Event.StartTime,
			EndTime:     b.Event.EndTime,
			Creator:     b.Event.CreatorID,
		},
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if !b.Event.Date.IsZero() {
		view.Event.Date = b.Event.Date.UTC().Format(validation.DateLayout)
	}
	return view
}
