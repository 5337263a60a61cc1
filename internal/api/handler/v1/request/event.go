package request

import (
	"errors"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	titlePattern = `^(?=.*\S)[^\r\n]{1,200}$`
	datePattern  = `^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])$`
	clockPattern = `^([01]\d|2[0-3]):[0-5]\d$`
)

var (
	titleExp = regexp2.MustCompile(titlePattern, regexp2.None)
	dateExp  = regexp2.MustCompile(datePattern, regexp2.None)
	clockExp = regexp2.MustCompile(clockPattern, regexp2.None)

	errBlankTitle  = errors.New("must contain a non-blank character and fit on one line")
	errInvalidDate = errors.New("must be a date in YYYY-MM-DD format")
	errInvalidTime = errors.New("must be a time in HH:MM format")
)

type CreateEventRequest struct {
	Title           string  `json:"title" example:"Neighbourhood clean-up"`
	Description     string  `json:"description"`
	Date            string  `json:"date" example:"2026-07-01"`
	StartTime       string  `json:"start_time" example:"18:00"`
	EndTime         *string `json:"end_time" example:"21:00"`
	TimeZone        string  `json:"time_zone" example:"Europe/Paris"`
	Location        string  `json:"location"`
	MaxParticipants *int    `json:"max_participants" example:"50"`
}

func (req *CreateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.By(matches(titleExp, errBlankTitle))),
		validation.Field(&req.Description, validation.Length(0, 2000)),
		validation.Field(&req.Date, validation.Required, validation.By(matches(dateExp, errInvalidDate))),
		validation.Field(&req.StartTime, validation.Required, validation.By(matches(clockExp, errInvalidTime))),
		validation.Field(&req.EndTime, validation.NilOrNotEmpty, validation.By(matches(clockExp, errInvalidTime))),
		validation.Field(&req.TimeZone, validation.Length(0, 64)),
		validation.Field(&req.Location, validation.Length(0, 200)),
		validation.Field(&req.MaxParticipants, validation.Min(1)),
	)
}

type ListEventsQuery struct {
	Page     int `form:"page"`
	PageSize int `form:"page_size"`
}

func (q *ListEventsQuery) Validate() error {
	return validation.ValidateStruct(
		q,
		validation.Field(&q.Page, validation.Min(1)),
		validation.Field(&q.PageSize, validation.Min(1), validation.Max(100)),
	)
}

// ValidateID checks a path identifier.
func ValidateID(id string) error {
	return validation.Validate(id, validation.Required, is.UUID)
}

// matches adapts a regexp2 expression to an ozzo rule. Empty values pass so
// that Required and NilOrNotEmpty stay in charge of presence.
func matches(exp *regexp2.Regexp, failure error) validation.RuleFunc {
	return func(value interface{}) error {
		v, isNil := validation.Indirect(value)
		s, _ := v.(string)
		if isNil || s == "" {
			return nil
		}

		ok, err := exp.MatchString(s)
		if err != nil {
			return err
		}
		if !ok {
			return failure
		}
		return nil
	}
}
