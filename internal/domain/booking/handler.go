package booking

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/labvisit/labvisit/internal/platform/auth"
)

type Handler struct {
	svc  *Service
	auth *auth.AdminAuthenticator
}

func NewHandler(svc *Service, adminAuth *auth.AdminAuthenticator) *Handler {
	return &Handler{svc: svc, auth: adminAuth}
}

// RegisterRoutes wires the public intake surface and the admin surface. The
// admin group is expected to carry the shared-secret guard.
func (h *Handler) RegisterRoutes(public *echo.Group, admin *echo.Group) {
	public.POST("/bookings", h.CreateBooking)
	public.POST("/admin/login", h.AdminLogin)

	admin.GET("/bookings", h.ListBookings)
	admin.GET("/bookings/:id", h.GetBooking)
	admin.PATCH("/bookings/:id/status", h.UpdateStatus)
	admin.GET("/bookings/export.csv", h.ExportCSV)
	admin.POST("/reminders/run", h.RunReminders)
}

// createResponse is the intake reply shape.
type createResponse struct {
	Success     bool         `json:"success"`
	Message     string       `json:"message"`
	Appointment *Appointment `json:"appointment,omitempty"`
}

func (h *Handler) CreateBooking(c echo.Context) error {
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, createResponse{Success: false, Message: "invalid request body"})
	}

	a, err := h.svc.Create(c.Request().Context(), &in)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			return c.JSON(http.StatusBadRequest, createResponse{Success: false, Message: verr.Error()})
		}
		return c.JSON(http.StatusInternalServerError, createResponse{Success: false, Message: "could not create booking"})
	}

	return c.JSON(http.StatusCreated, createResponse{
		Success:     true,
		Message:     "booking received",
		Appointment: a,
	})
}

type loginRequest struct {
	Password string `json:"password"`
}

func (h *Handler) AdminLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res := h.auth.Authenticate(req.Password)
	switch {
	case res.Success:
		return c.JSON(http.StatusOK, res)
	case !h.auth.Configured():
		return c.JSON(http.StatusServiceUnavailable, res)
	default:
		return c.JSON(http.StatusUnauthorized, res)
	}
}

func (h *Handler) ListBookings(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	appts, err := h.svc.List(c.Request().Context(), f)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not list bookings")
	}
	if appts == nil {
		appts = []*Appointment{}
	}
	return c.JSON(http.StatusOK, appts)
}

func (h *Handler) GetBooking(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	a, err := h.svc.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "booking not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not fetch booking")
	}
	return c.JSON(http.StatusOK, a)
}

// statusUpdateRequest distinguishes omitted notes (preserve) from an explicit
// null or empty value (clear) by deferring notes decoding.
type statusUpdateRequest struct {
	Status Status          `json:"status"`
	Notes  json.RawMessage `json:"notes"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var req statusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	notes, err := decodeNotes(req.Notes)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid notes value")
	}

	a, err := h.svc.UpdateStatus(c.Request().Context(), id, req.Status, notes)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
		case errors.Is(err, ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "booking not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "could not update booking")
		}
	}
	return c.JSON(http.StatusOK, a)
}

// decodeNotes maps the three JSON shapes to the service contract: absent key
// returns nil (preserve), JSON null returns a pointer to "" (clear), a string
// returns its value.
func decodeNotes(raw json.RawMessage) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if s == nil {
		empty := ""
		return &empty, nil
	}
	return s, nil
}

func (h *Handler) ExportCSV(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Build the document before committing a status so a storage failure can
	// still surface as a 500. The query contract is the full unpaginated set,
	// so buffering is bounded by the same data the JSON listing returns.
	var buf bytes.Buffer
	if err := h.svc.ExportCSV(c.Request().Context(), f, &buf); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "could not export bookings")
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=\"bookings_%s.csv\"", time.Now().UTC().Format("20060102_150405")))
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

func (h *Handler) RunReminders(c echo.Context) error {
	stats, err := h.svc.SendNextDayReminders(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "reminder run failed")
	}
	return c.JSON(http.StatusOK, stats)
}

// filterFromQuery parses status, from, to and q query parameters. from/to
// accept YYYY-MM-DD (interpreted in the service timezone, to spanning the
// whole day) or full RFC 3339 timestamps.
func filterFromQuery(c echo.Context) (Filter, error) {
	var f Filter

	if raw := c.QueryParam("status"); raw != "" {
		st := Status(raw)
		if !st.Valid() {
			return f, fmt.Errorf("invalid status: %s", raw)
		}
		f.Status = &st
	}
	if raw := c.QueryParam("from"); raw != "" {
		t, _, err := parseDateParam(raw)
		if err != nil {
			return f, fmt.Errorf("invalid from date: %s", raw)
		}
		f.From = &t
	}
	if raw := c.QueryParam("to"); raw != "" {
		t, dateOnly, err := parseDateParam(raw)
		if err != nil {
			return f, fmt.Errorf("invalid to date: %s", raw)
		}
		if dateOnly {
			// Inclusive of the whole named day: the last representable
			// instant before the next day starts.
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		f.To = &t
	}
	f.Search = c.QueryParam("q")

	return f, nil
}

func parseDateParam(raw string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse("2006-01-02", raw); err == nil {
		return t, true, nil
	}
	t, err = time.Parse(time.RFC3339, raw)
	return t, false, err
}
