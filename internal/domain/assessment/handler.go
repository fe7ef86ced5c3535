package assessment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/DanielGlez0/SCEP/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	clinician := api.Group("/patients/:patient_id/assignments", auth.RequireRole(auth.RoleClinician))
	clinician.PUT("", h.Reconcile)
	clinician.GET("", h.PatientHistory)
	clinician.GET("/compare", h.Compare)
	clinician.GET("/:id/responses", h.PatientResponses)

	me := api.Group("/me/assignments", auth.RequireRole(auth.RolePatient))
	me.GET("", h.MyHistory)
	me.POST("/:id/responses", h.Submit)
	me.GET("/:id/responses", h.MyResponses)
}

type reconcileRequest struct {
	QuestionnaireIDs []int64 `json:"questionnaire_ids" validate:"required,dive,gt=0"`
}

type submitRequest struct {
	Answers map[int64]Choice `json:"answers" validate:"required"`
}

type failureBody struct {
	Op              string `json:"op"`
	QuestionnaireID int64  `json:"questionnaire_id"`
	AssignmentID    int64  `json:"assignment_id,omitempty"`
	Error           string `json:"error"`
}

func mapError(err error) error {
	var rerr *ReconcileError
	var incomplete *IncompleteSubmissionError
	switch {
	case errors.As(err, &rerr):
		failures := make([]failureBody, len(rerr.Failures))
		for i, f := range rerr.Failures {
			failures[i] = failureBody{
				Op:              f.Op,
				QuestionnaireID: f.QuestionnaireID,
				AssignmentID:    f.AssignmentID,
				Error:           f.Err.Error(),
			}
		}
		return echo.NewHTTPError(http.StatusInternalServerError, map[string]interface{}{
			"message":  "reconcile partially applied",
			"created":  rerr.Result.Created,
			"deleted":  rerr.Result.Deleted,
			"failures": failures,
		}).SetInternal(err)
	case errors.As(err, &incomplete):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, map[string]interface{}{
			"message": "every question must be answered",
			"missing": incomplete.Missing,
		})
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidAnswer):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrIncomparableAssignments):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrInvariantViolation):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrPersistenceFailure):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "storage unavailable").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}

func parseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return c.Validate(req)
}

// -- Clinician Handlers --

func (h *Handler) Reconcile(c echo.Context) error {
	patientID, err := parseID(c.Param("patient_id"), "patient_id")
	if err != nil {
		return err
	}
	actor, err := auth.ClinicianID(c)
	if err != nil {
		return err
	}
	var req reconcileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	result, err := h.svc.Reconcile(c.Request().Context(), patientID, req.QuestionnaireIDs, actor)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) PatientHistory(c echo.Context) error {
	patientID, err := parseID(c.Param("patient_id"), "patient_id")
	if err != nil {
		return err
	}
	return h.history(c, patientID)
}

func (h *Handler) Compare(c echo.Context) error {
	patientID, err := parseID(c.Param("patient_id"), "patient_id")
	if err != nil {
		return err
	}
	a, err := parseID(c.QueryParam("a"), "a")
	if err != nil {
		return err
	}
	b, err := parseID(c.QueryParam("b"), "b")
	if err != nil {
		return err
	}
	cmp, err := h.svc.Compare(c.Request().Context(), patientID, a, b)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, cmp)
}

func (h *Handler) PatientResponses(c echo.Context) error {
	patientID, err := parseID(c.Param("patient_id"), "patient_id")
	if err != nil {
		return err
	}
	return h.responses(c, patientID)
}

// -- Patient Handlers --

func (h *Handler) MyHistory(c echo.Context) error {
	patientID, err := auth.PatientID(c)
	if err != nil {
		return err
	}
	return h.history(c, patientID)
}

func (h *Handler) Submit(c echo.Context) error {
	patientID, err := auth.PatientID(c)
	if err != nil {
		return err
	}
	assignmentID, err := parseID(c.Param("id"), "id")
	if err != nil {
		return err
	}
	var req submitRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	result, err := h.svc.Submit(c.Request().Context(), patientID, assignmentID, req.Answers)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) MyResponses(c echo.Context) error {
	patientID, err := auth.PatientID(c)
	if err != nil {
		return err
	}
	return h.responses(c, patientID)
}

func (h *Handler) history(c echo.Context, patientID int64) error {
	entries, err := h.svc.CurrentAndHistory(c.Request().Context(), patientID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, SortedEntries(entries))
}

func (h *Handler) responses(c echo.Context, patientID int64) error {
	assignmentID, err := parseID(c.Param("id"), "id")
	if err != nil {
		return err
	}
	detail, err := h.svc.AssignmentResponses(c.Request().Context(), patientID, assignmentID)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, detail)
}
