package questionnaire

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/DanielGlez0/SCEP/internal/platform/auth"
	"github.com/DanielGlez0/SCEP/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	// Patients read questionnaires to answer them.
	readGroup := api.Group("", auth.RequireRole(auth.RoleClinician, auth.RolePatient))
	readGroup.GET("/questionnaires", h.ListQuestionnaires)
	readGroup.GET("/questionnaires/:id", h.GetQuestionnaire)
	readGroup.GET("/questionnaires/:id/questions", h.ListQuestions)

	writeGroup := api.Group("", auth.RequireRole(auth.RoleClinician))
	writeGroup.POST("/questionnaires", h.CreateQuestionnaire)
	writeGroup.PUT("/questionnaires/:id", h.UpdateQuestionnaire)
	writeGroup.DELETE("/questionnaires/:id", h.DeleteQuestionnaire)
	writeGroup.POST("/questionnaires/:id/questions", h.CreateQuestion)
	writeGroup.PUT("/questions/:id", h.UpdateQuestion)
	writeGroup.DELETE("/questions/:id", h.DeleteQuestion)
}

type questionnaireRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
}

type questionRequest struct {
	Text    string  `json:"text" validate:"required"`
	Options Options `json:"options" validate:"required,min=1"`
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalid):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInUse):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
	}
}

func paramID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
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

// -- Questionnaire Handlers --

func (h *Handler) CreateQuestionnaire(c echo.Context) error {
	var req questionnaireRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	q := &Questionnaire{Title: req.Title, Description: req.Description}
	if err := h.svc.CreateQuestionnaire(c.Request().Context(), q); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, q)
}

func (h *Handler) GetQuestionnaire(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	q, err := h.svc.GetQuestionnaire(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *Handler) ListQuestionnaires(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListQuestionnaires(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return mapError(err)
	}
	if items == nil {
		items = []*Questionnaire{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg))
}

func (h *Handler) UpdateQuestionnaire(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req questionnaireRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	q := &Questionnaire{ID: id, Title: req.Title, Description: req.Description}
	if err := h.svc.UpdateQuestionnaire(c.Request().Context(), q); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *Handler) DeleteQuestionnaire(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteQuestionnaire(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Question Handlers --

func (h *Handler) ListQuestions(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	items, err := h.svc.Questions(c.Request().Context(), id)
	if err != nil {
		return mapError(err)
	}
	if items == nil {
		items = []*Question{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) CreateQuestion(c echo.Context) error {
	qnID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req questionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	q := &Question{QuestionnaireID: qnID, Text: req.Text, Options: req.Options}
	if err := h.svc.CreateQuestion(c.Request().Context(), q); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusCreated, q)
}

func (h *Handler) UpdateQuestion(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req questionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	q := &Question{ID: id, Text: req.Text, Options: req.Options}
	if err := h.svc.UpdateQuestion(c.Request().Context(), q); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, q)
}

func (h *Handler) DeleteQuestion(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteQuestion(c.Request().Context(), id); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
