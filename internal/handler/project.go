package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/task-board/internal/model"
	"github.com/iliyamo/task-board/internal/repository"
)

// ProjectHandler bundles dependencies for project endpoints.
type ProjectHandler struct {
	Projects *repository.ProjectRepo
}

// NewProjectHandler constructs a ProjectHandler and panics if the repository
// is nil.
func NewProjectHandler(projects *repository.ProjectRepo) *ProjectHandler {
	if projects == nil {
		panic("nil repository passed to NewProjectHandler")
	}
	return &ProjectHandler{Projects: projects}
}

type projectReq struct {
	Name string `json:"name"`
}

// CreateProject handles POST /v1/projects. The authenticated user becomes
// the owner of the new board.
func (h *ProjectHandler) CreateProject(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	p := &model.Project{OwnerID: ownerID, Name: name}
	if err := h.Projects.Create(c.Request().Context(), p); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create project"})
	}
	return c.JSON(http.StatusCreated, p)
}

// ListProjects handles GET /v1/projects and returns the caller's boards.
func (h *ProjectHandler) ListProjects(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	out, err := h.Projects.ListByOwner(c.Request().Context(), ownerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if out == nil {
		out = []*model.Project{}
	}
	return c.JSON(http.StatusOK, out)
}

// GetProject handles GET /v1/projects/:id. Any authenticated user can read
// a board; only mutation is owner-scoped.
func (h *ProjectHandler) GetProject(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}
	p, err := h.Projects.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProjectNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, p)
}

// UpdateProject handles PATCH /v1/projects/:id and renames an owned board.
func (h *ProjectHandler) UpdateProject(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}
	var req projectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	ctx := c.Request().Context()
	if err := h.Projects.UpdateName(ctx, id, ownerID, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	p, err := h.Projects.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, p)
}

// DeleteProject handles DELETE /v1/projects/:id. The project's tickets go
// with it in the same transaction.
func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	ownerID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid project id"})
	}

	if err := h.Projects.DeleteByIDAndOwner(c.Request().Context(), id, ownerID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your project"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// Directory handles GET /v1/directory/projects, the unauthenticated project
// listing. Responses carry only id and name; this is the one endpoint the
// Redis response cache sits in front of.
func (h *ProjectHandler) Directory(c echo.Context) error {
	out, err := h.Projects.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	type entry struct {
		ID   uint64 `json:"id"`
		Name string `json:"name"`
	}
	list := make([]entry, 0, len(out))
	for _, p := range out {
		list = append(list, entry{ID: p.ID, Name: p.Name})
	}
	return c.JSON(http.StatusOK, list)
}
