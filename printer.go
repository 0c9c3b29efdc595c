package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"dormhop/models"
	"dormhop/services"
)

var (
	headingColor = color.New(color.FgYellow, color.Bold)
	savedColor   = color.New(color.FgGreen, color.Bold)
	mutedColor   = color.New(color.FgHiBlack)
	warnColor    = color.New(color.FgRed)
	noticeColor  = color.New(color.FgCyan)
)

type printer struct {
	w io.Writer
}

func (p printer) notice(msg string)  { noticeColor.Fprintln(p.w, msg) }
func (p printer) warning(msg string) { warnColor.Fprintln(p.w, msg) }

func (p printer) rooms(v services.SearchView) {
	title := "Rooms"
	if v.Filter.ShowRecommended {
		title = "Recommended rooms"
	}
	headingColor.Fprintf(p.w, "%s (%d)\n", title, len(v.Rooms))
	if !v.Filter.IsEmpty() {
		mutedColor.Fprintf(p.w, "  filter: %s\n", describeFilter(v.Filter))
	}
	if len(v.Rooms) == 0 {
		fmt.Fprintln(p.w, "  No rooms match.")
		return
	}
	for _, r := range v.Rooms {
		p.roomLine(r, v.IsSaved(r.ID))
	}
	if v.Exhausted {
		mutedColor.Fprintln(p.w, "  (end of list)")
	}
}

func (p printer) savedRooms(rooms []models.Room) {
	headingColor.Fprintf(p.w, "Saved rooms (%d)\n", len(rooms))
	if len(rooms) == 0 {
		fmt.Fprintln(p.w, "  Nothing saved yet.")
		return
	}
	for _, r := range rooms {
		p.roomLine(r, true)
	}
}

func (p printer) roomLine(r models.Room, saved bool) {
	mark := " "
	if saved {
		mark = savedColor.Sprint("★")
	}
	fmt.Fprintf(p.w, "  %s #%-4d %-24s %-6s %-7s %s\n",
		mark, r.ID, r.Dorm, r.RoomNumber, services.OccupancyLabel(r.Occupancy),
		mutedColor.Sprint(strings.Join(r.Amenities, ", ")))
}

func (p printer) detail(d *services.RoomDetailView, saved bool) {
	r := d.Room
	headingColor.Fprintf(p.w, "%s %s\n", r.Dorm, r.RoomNumber)
	if saved {
		savedColor.Fprintln(p.w, "  ★ saved")
	}
	fmt.Fprintf(p.w, "  Occupancy : %s\n", services.OccupancyLabel(r.Occupancy))
	if r.Campus != "" {
		fmt.Fprintf(p.w, "  Campus    : %s\n", r.Campus)
	}
	if len(r.Amenities) > 0 {
		fmt.Fprintf(p.w, "  Amenities : %s\n", strings.Join(r.Amenities, ", "))
	}
	if len(d.Features) > 0 {
		fmt.Fprintf(p.w, "  Dorm      : %s\n", strings.Join(d.Features, ", "))
	}
	if r.Owner != nil {
		fmt.Fprintf(p.w, "  Owner     : %s (class of %d)\n", r.Owner.FullName, r.Owner.ClassYear)
	}
	if r.Description != "" {
		fmt.Fprintf(p.w, "\n  %s\n", r.Description)
	}
}

func (p printer) knocks(v services.KnockView) {
	if v.Error != "" {
		p.warning(v.Error)
	}
	headingColor.Fprintf(p.w, "Sent knocks (%d)\n", len(v.Sent))
	for _, k := range v.Sent {
		p.knockLine(k, fmt.Sprintf("to %s %s", k.ToRoom.Dorm, k.ToRoom.RoomNumber))
	}
	headingColor.Fprintf(p.w, "Received knocks (%d)\n", len(v.Received))
	for _, k := range v.Received {
		p.knockLine(k, "from "+k.FromUser.FullName)
	}
}

func (p printer) knockLine(k models.Knock, who string) {
	status := mutedColor.Sprint(string(k.Status))
	if k.IsAccepted() {
		status = savedColor.Sprint(string(k.Status))
	}
	fmt.Fprintf(p.w, "  #%-4d %-32s %s\n", k.ID, who, status)
	if k.Contacts != nil {
		fmt.Fprintf(p.w, "        contacts: %s, %s\n", k.Contacts.FromEmail, k.Contacts.ToEmail)
	}
}

func (p printer) user(u *models.User) {
	if u == nil {
		return
	}
	headingColor.Fprintf(p.w, "%s <%s>\n", u.FullName, u.Email)
	if u.ClassYear > 0 {
		fmt.Fprintf(p.w, "  Class of %d\n", u.ClassYear)
	}
	if u.CurrentRoom == nil {
		mutedColor.Fprintln(p.w, "  No room on file.")
		return
	}
	r := u.CurrentRoom
	listed := "hidden"
	if u.IsRoomListed {
		listed = "listed"
	}
	fmt.Fprintf(p.w, "  Room: %s %s, %s (%s)\n", r.Dorm, r.RoomNumber, services.OccupancyLabel(r.Occupancy), listed)
}

func describeFilter(f models.FilterState) string {
	var parts []string
	if q := strings.TrimSpace(f.Query); q != "" {
		parts = append(parts, fmt.Sprintf("query %q", q))
	}
	if occs := f.Occupancies(); len(occs) > 0 {
		labels := make([]string, 0, len(occs))
		for _, o := range occs {
			labels = append(labels, services.OccupancyLabel(o))
		}
		parts = append(parts, "size "+strings.Join(labels, "/"))
	}
	if cs := f.Campuses(); len(cs) > 0 {
		parts = append(parts, "campus "+strings.Join(cs, "/"))
	}
	if f.GenderFilter != "" {
		parts = append(parts, "gender "+f.GenderFilter)
	}
	return strings.Join(parts, ", ")
}
