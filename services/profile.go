package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"dormhop/api"
	"dormhop/models"
)

var occupancyLabels = map[int]string{
	1: "Single",
	2: "Double",
	3: "Triple",
	4: "Quad",
}

// OccupancyLabel names a room size, falling back to the number itself.
func OccupancyLabel(n int) string {
	if l, ok := occupancyLabels[n]; ok {
		return l
	}
	return strconv.Itoa(n)
}

// ParseOccupancy accepts a label such as "Double" (any case) or a positive
// number.
func ParseOccupancy(s string) (int, bool) {
	s = strings.TrimSpace(s)
	for n, l := range occupancyLabels {
		if strings.EqualFold(l, s) {
			return n, true
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// OccupancyLabels returns the named room sizes in ascending order.
func OccupancyLabels() []string {
	ns := make([]int, 0, len(occupancyLabels))
	for n := range occupancyLabels {
		ns = append(ns, n)
	}
	sort.Ints(ns)
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, occupancyLabels[n])
	}
	return out
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ProfileStep is a page of the profile form.
type ProfileStep int

const (
	StepPersonal ProfileStep = iota
	StepDorm
)

// ProfileForm holds the editable profile and room fields.
type ProfileForm struct {
	FullName     string
	Email        string
	ClassYear    string
	IsRoomListed bool
	Dorm         string
	RoomNumber   string
	Occupancy    string
	Amenities    []string
	Description  string
}

// ProfileState is the editor as a screen sees it.
type ProfileState struct {
	Form               ProfileForm
	Step               ProfileStep
	CanProceedPersonal bool
	CanProceedDorm     bool
	Saving             bool
	Done               bool
	Error              string
}

// ProfileEditor is the two step form that describes the user's room.
type ProfileEditor struct {
	source  ProfileSource
	cleaner *Cleaner
	logger  *zap.Logger

	mu        sync.Mutex
	form      ProfileForm
	step      ProfileStep
	hasRoom   bool
	wasListed bool
	saving    bool
	done      bool
	errMsg    string
	changes   observers[ProfileState]
}

func NewProfileEditor(source ProfileSource, cleaner *Cleaner, logger *zap.Logger) *ProfileEditor {
	return &ProfileEditor{source: source, cleaner: cleaner, logger: logger}
}

func (e *ProfileEditor) Subscribe(fn func(ProfileState)) func() {
	return e.changes.subscribe(fn)
}

// State returns a copy of the editor.
func (e *ProfileEditor) State() ProfileState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// Prefill loads the profile and copies it into the form.
func (e *ProfileEditor) Prefill(ctx context.Context) error {
	user, err := e.source.Profile(ctx)
	if err != nil {
		e.edit(func() { e.errMsg = "Failed to load profile: " + api.Message(err) })
		return err
	}
	e.edit(func() {
		e.form.FullName = user.FullName
		e.form.Email = user.Email
		if user.ClassYear > 0 {
			e.form.ClassYear = strconv.Itoa(user.ClassYear)
		}
		e.form.IsRoomListed = user.IsRoomListed
		e.wasListed = user.IsRoomListed
		e.hasRoom = user.CurrentRoom != nil
		if r := user.CurrentRoom; r != nil {
			e.form.Dorm = r.Dorm
			e.form.RoomNumber = r.RoomNumber
			e.form.Occupancy = OccupancyLabel(r.Occupancy)
			e.form.Amenities = append([]string(nil), r.Amenities...)
			e.form.Description = r.Description
		}
		e.errMsg = ""
	})
	return nil
}

func (e *ProfileEditor) SetFullName(v string)  { e.edit(func() { e.form.FullName = v }) }
func (e *ProfileEditor) SetEmail(v string)     { e.edit(func() { e.form.Email = v }) }
func (e *ProfileEditor) SetClassYear(v string) { e.edit(func() { e.form.ClassYear = v }) }
func (e *ProfileEditor) SetRoomListed(v bool)  { e.edit(func() { e.form.IsRoomListed = v }) }
func (e *ProfileEditor) SetDorm(v string)      { e.edit(func() { e.form.Dorm = v }) }
func (e *ProfileEditor) SetRoomNumber(v string) {
	e.edit(func() { e.form.RoomNumber = v })
}
func (e *ProfileEditor) SetOccupancy(v string)   { e.edit(func() { e.form.Occupancy = v }) }
func (e *ProfileEditor) SetDescription(v string) { e.edit(func() { e.form.Description = v }) }

// AddAmenity appends a non-blank amenity that is not already listed.
func (e *ProfileEditor) AddAmenity(a string) {
	a = normaliseText(a)
	if a == "" {
		return
	}
	e.edit(func() {
		for _, have := range e.form.Amenities {
			if strings.EqualFold(have, a) {
				return
			}
		}
		e.form.Amenities = append(e.form.Amenities, a)
	})
}

// RemoveAmenity drops every amenity equal to a, ignoring case.
func (e *ProfileEditor) RemoveAmenity(a string) {
	e.edit(func() {
		kept := e.form.Amenities[:0:0]
		for _, have := range e.form.Amenities {
			if !strings.EqualFold(have, a) {
				kept = append(kept, have)
			}
		}
		e.form.Amenities = kept
	})
}

// Next moves from the personal step to the dorm step. It reports false and
// stays put when the personal fields are incomplete.
func (e *ProfileEditor) Next() bool {
	moved := false
	e.edit(func() {
		if e.step == StepPersonal && canProceedPersonal(e.form) {
			e.step = StepDorm
			moved = true
		}
	})
	return moved
}

// Back returns to the personal step.
func (e *ProfileEditor) Back() {
	e.edit(func() { e.step = StepPersonal })
}

// Save creates or updates the user's room from the form, then applies a
// changed listing flag. Nothing is sent while the dorm step is incomplete.
func (e *ProfileEditor) Save(ctx context.Context) (*models.Room, error) {
	e.mu.Lock()
	if e.saving {
		e.mu.Unlock()
		return nil, ErrMutationInFlight
	}
	form := e.form
	hasRoom := e.hasRoom
	wasListed := e.wasListed
	e.mu.Unlock()

	req, err := e.request(form)
	if err != nil {
		e.edit(func() { e.errMsg = err.Error() })
		return nil, err
	}

	e.edit(func() {
		e.saving = true
		e.errMsg = ""
	})

	var room *models.Room
	if hasRoom {
		room, err = e.source.UpdateRoom(ctx, req)
	} else {
		room, err = e.source.CreateRoom(ctx, req)
	}
	if err == nil && form.IsRoomListed != wasListed {
		_, err = e.source.SetVisibility(ctx, form.IsRoomListed)
		if err == nil {
			wasListed = form.IsRoomListed
		}
	}

	e.edit(func() {
		e.saving = false
		if room != nil {
			e.hasRoom = true
		}
		e.wasListed = wasListed
		if err != nil {
			e.errMsg = "Failed to save profile: " + api.Message(err)
			return
		}
		e.done = true
	})

	if err != nil {
		e.logger.Warn("Failed to save profile", zap.Error(err))
		return room, err
	}
	e.logger.Info("Saved room", zap.Int("room_id", room.ID), zap.Bool("created", !hasRoom))
	return room, nil
}

func (e *ProfileEditor) request(form ProfileForm) (api.RoomRequest, error) {
	occ, ok := ParseOccupancy(form.Occupancy)
	if !ok {
		return api.RoomRequest{}, fmt.Errorf("occupancy %q is not a room size", form.Occupancy)
	}
	desc := form.Description
	req := e.cleaner.Clean(api.RoomRequest{
		Dorm:        form.Dorm,
		RoomNumber:  form.RoomNumber,
		Occupancy:   occ,
		Amenities:   form.Amenities,
		Description: &desc,
	})
	if err := ValidateRoomRequest(req); err != nil {
		return api.RoomRequest{}, err
	}
	return req, nil
}

// ValidateRoomRequest checks the required room fields and names the first
// one that fails.
func ValidateRoomRequest(req api.RoomRequest) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", fe.Field())
	case "min":
		return fmt.Errorf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Errorf("%s is invalid", fe.Field())
	}
}

func (e *ProfileEditor) edit(fn func()) {
	e.mu.Lock()
	fn()
	state := e.stateLocked()
	e.mu.Unlock()
	e.changes.notify(state)
}

func (e *ProfileEditor) stateLocked() ProfileState {
	form := e.form
	form.Amenities = append([]string(nil), e.form.Amenities...)
	return ProfileState{
		Form:               form,
		Step:               e.step,
		CanProceedPersonal: canProceedPersonal(e.form),
		CanProceedDorm:     canProceedDorm(e.form),
		Saving:             e.saving,
		Done:               e.done,
		Error:              e.errMsg,
	}
}

func canProceedPersonal(f ProfileForm) bool {
	if strings.TrimSpace(f.FullName) == "" || strings.TrimSpace(f.Email) == "" {
		return false
	}
	year, err := strconv.Atoi(strings.TrimSpace(f.ClassYear))
	return err == nil && year > 0
}

func canProceedDorm(f ProfileForm) bool {
	if strings.TrimSpace(f.Dorm) == "" || strings.TrimSpace(f.RoomNumber) == "" {
		return false
	}
	_, ok := ParseOccupancy(f.Occupancy)
	return ok
}
