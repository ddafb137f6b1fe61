package calendar

import (
	"net/url"
	"strconv"
	"time"

	"ms-calendar/internal/models"
)

// Query encodes everything but the event list, which is always re-fetched.
func (s ViewState) Query() url.Values {
	v := url.Values{}
	if s.ModalOpen() {
		v.Set("mode", string(s.Mode))
	}
	if s.SelectedID != "" {
		v.Set("id", s.SelectedID)
	}
	if s.StatusFilter != "" && s.StatusFilter != StatusAll {
		v.Set("status", s.StatusFilter)
	}
	if s.Search != "" {
		v.Set("q", s.Search)
	}
	if !s.FocusDate.IsZero() {
		v.Set("focus", string(s.FocusDate))
	}
	if s.Saving {
		v.Set("saving", "1")
	}
	if s.Toast != nil {
		v.Set("toast", s.Toast.Message)
		v.Set("toast_kind", string(s.Toast.Kind))
		v.Set("toast_exp", strconv.FormatInt(s.Toast.ExpiresAt.UnixMilli(), 10))
	}
	if s.Mode == ModeEdit || s.Mode == ModeCreate {
		for key, value := range formFields(s.Form) {
			if value != "" {
				v.Set(key, value)
			}
		}
	}
	return v
}

// DecodeState is the inverse of Query. Unknown modes decode as ModeNone.
func DecodeState(v url.Values) ViewState {
	s := ViewState{
		Mode:         ModeNone,
		SelectedID:   v.Get("id"),
		StatusFilter: normalizeStatusFilter(v.Get("status")),
		Search:       v.Get("q"),
		Saving:       v.Get("saving") == "1",
		Events:       []models.Event{},
	}
	switch Mode(v.Get("mode")) {
	case ModeView:
		s.Mode = ModeView
	case ModeEdit:
		s.Mode = ModeEdit
	case ModeCreate:
		s.Mode = ModeCreate
	}
	if d, err := models.ParseDate(v.Get("focus")); err == nil {
		s.FocusDate = d
	}
	if msg := v.Get("toast"); msg != "" {
		exp, _ := strconv.ParseInt(v.Get("toast_exp"), 10, 64)
		kind := ToastKind(v.Get("toast_kind"))
		if kind != ToastError {
			kind = ToastSuccess
		}
		s.Toast = &Toast{Message: msg, Kind: kind, ExpiresAt: time.UnixMilli(exp).UTC()}
	}
	if s.Mode == ModeEdit || s.Mode == ModeCreate {
		s.Form = Form{
			Title:         v.Get("f_title"),
			Date:          v.Get("f_date"),
			Status:        v.Get("f_status"),
			CustomerName:  v.Get("f_customerName"),
			CustomerPhone: v.Get("f_customerPhone"),
			Location:      v.Get("f_location"),
			CustomerEmail: v.Get("f_customerEmail"),
		}
		if s.Mode == ModeEdit {
			s.Form.ID = s.SelectedID
		}
	}
	return s
}

func formFields(f Form) map[string]string {
	return map[string]string{
		"f_title":         f.Title,
		"f_date":          f.Date,
		"f_status":        f.Status,
		"f_customerName":  f.CustomerName,
		"f_customerPhone": f.CustomerPhone,
		"f_location":      f.Location,
		"f_customerEmail": f.CustomerEmail,
	}
}
