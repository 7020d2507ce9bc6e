package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/task-planner/internal/middleware"
	"github.com/iliyamo/task-planner/internal/repository"
	"github.com/iliyamo/task-planner/internal/service"
)

// TaskHandler exposes the task CRUD and reorder endpoints. All
// routes run behind JWTAuth; the owning user id always comes from
// the access token, never from the request body.
type TaskHandler struct {
	Tasks *service.TaskService
}

func NewTaskHandler(t *service.TaskService) *TaskHandler { return &TaskHandler{Tasks: t} }

// ----- DTOs -----

type createTaskReq struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
}

// patchTaskReq uses pointers so "absent" and "zero value" stay
// distinguishable; only supplied fields reach the update.
type patchTaskReq struct {
	Title    *string `json:"title"`
	Date     *string `json:"date"`
	Status   *string `json:"status"`
	Priority *string `json:"priority"`
	Order    *int    `json:"order"`
}

type bulkUpdateReq struct {
	Tasks []repository.ReorderItem `json:"tasks"`
}

type paginationPart struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int   `json:"pages"`
}

// List handles GET /v1/tasks with optional status, priority,
// startDate, endDate, page and limit query parameters.
func (h *TaskHandler) List(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	q := repository.TaskQuery{
		Status:    c.QueryParam("status"),
		Priority:  c.QueryParam("priority"),
		StartDate: c.QueryParam("startDate"),
		EndDate:   c.QueryParam("endDate"),
	}
	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "page must be a positive integer"})
		}
		q.Page = n
	}
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be between 1 and 100"})
		}
		q.PageSize = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	page, err := h.Tasks.List(ctx, uid, q)
	if err != nil {
		return taskError(c, err, "list tasks")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"tasks": page.Tasks,
		"pagination": paginationPart{
			Total: page.Total,
			Page:  page.Page,
			Limit: page.Limit,
			Pages: page.Pages,
		},
	})
}

// Range handles GET /v1/tasks/range for the calendar view: every
// task between two mandatory dates, no pagination.
func (h *TaskHandler) Range(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	start, end := c.QueryParam("startDate"), c.QueryParam("endDate")
	if start == "" || end == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "startDate and endDate are required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tasks, err := h.Tasks.Range(ctx, uid, start, end)
	if err != nil {
		return taskError(c, err, "list task range")
	}
	return c.JSON(http.StatusOK, tasks)
}

// Create handles POST /v1/tasks.
func (h *TaskHandler) Create(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createTaskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tasks.Create(ctx, uid, req.Title, req.Date, req.Status, req.Priority)
	if err != nil {
		return taskError(c, err, "create task")
	}
	return c.JSON(http.StatusCreated, t)
}

// Patch handles PATCH /v1/tasks/:id with any subset of title, date,
// status, priority and order.
func (h *TaskHandler) Patch(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
	}
	var req patchTaskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	t, err := h.Tasks.Patch(ctx, uid, taskID, repository.TaskPatch{
		Title:    req.Title,
		Date:     req.Date,
		Status:   req.Status,
		Priority: req.Priority,
		Order:    req.Order,
	})
	if err != nil {
		return taskError(c, err, "patch task")
	}
	return c.JSON(http.StatusOK, t)
}

// Delete handles DELETE /v1/tasks/:id.
func (h *TaskHandler) Delete(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid task id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tasks.Delete(ctx, uid, taskID); err != nil {
		return taskError(c, err, "delete task")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "task deleted"})
}

// BulkUpdate handles POST /v1/tasks/bulk-update, persisting manual
// ordering after a drag-and-drop.
func (h *TaskHandler) BulkUpdate(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req bulkUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Tasks == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tasks array is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tasks.BulkReorder(ctx, uid, req.Tasks); err != nil {
		return taskError(c, err, "bulk update tasks")
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "tasks updated"})
}

// taskError maps service and repository failures onto HTTP codes.
// Unexpected errors are logged with full detail and answered with a
// generic message.
func taskError(c echo.Context, err error, op string) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}
	c.Logger().Errorf("%s failed: %v", op, err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
