package handlers

import (
	"net/http"

	"todoapp/internal/auth"
	dom "todoapp/internal/domain"
	"todoapp/internal/dto"
	"todoapp/internal/service"

	"github.com/gin-gonic/gin"
)

type TodoHandler struct {
	svc *service.TodoService
}

func NewTodoHandler(svc *service.TodoService) *TodoHandler {
	return &TodoHandler{svc: svc}
}

// List godoc
// @Summary      List the caller's todos
// @Description  Incomplete todos first, newest first within each group.
// @Tags         todos
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Param        completed  query     string  false  "true or false"
// @Param        priority   query     string  false  "LOW, MEDIUM or HIGH"
// @Success      200  {object}  dto.DataResponse[[]dto.TodoResponse]
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var q dto.ListTodosQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	list, err := h.svc.List(c.Request.Context(), userID, q.Filter())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse[[]dto.TodoResponse]{Data: todosToResponses(list)})
}

// GetByID godoc
// @Summary      Get a todo by ID
// @Tags         todos
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Param        id   path      string  true  "Todo ID"
// @Success      200  {object}  dto.DataResponse[dto.TodoResponse]
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /todos/{id} [get]
func (h *TodoHandler) GetByID(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	t, err := h.svc.GetByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse[dto.TodoResponse]{Data: todoToResponse(t)})
}

// Create godoc
// @Summary      Create a todo
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Param        body  body      dto.CreateTodoRequest  true  "Todo body"
// @Success      201   {object}  dto.DataResponse[dto.TodoResponse]
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	in, err := req.NewTodo()
	if err != nil {
		_ = c.Error(err)
		return
	}
	t, err := h.svc.Create(c.Request.Context(), userID, in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, dto.DataResponse[dto.TodoResponse]{Data: todoToResponse(t)})
}

// Update godoc
// @Summary      Update a todo
// @Description  Absent fields are unchanged; description and dueDate may be null to clear them.
// @Tags         todos
// @Accept       json
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Param        id    path      string  true  "Todo ID"
// @Param        body  body      dto.UpdateTodoRequest  true  "Partial update"
// @Success      200   {object}  dto.DataResponse[dto.TodoResponse]
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /todos/{id} [patch]
func (h *TodoHandler) Update(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	patch, err := req.Patch()
	if err != nil {
		_ = c.Error(err)
		return
	}
	t, err := h.svc.Update(c.Request.Context(), userID, c.Param("id"), patch)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse[dto.TodoResponse]{Data: todoToResponse(t)})
}

// Toggle godoc
// @Summary      Flip a todo's completion
// @Tags         todos
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Param        id   path      string  true  "Todo ID"
// @Success      200  {object}  dto.DataResponse[dto.TodoResponse]
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /todos/{id}/toggle [patch]
func (h *TodoHandler) Toggle(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	t, err := h.svc.Toggle(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse[dto.TodoResponse]{Data: todoToResponse(t)})
}

// Delete godoc
// @Summary      Delete a todo
// @Tags         todos
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Param        id   path      string  true  "Todo ID"
// @Success      200  {object}  dto.DataResponse[dto.DeleteResult]
// @Failure      401  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse[dto.DeleteResult]{Data: dto.DeleteResult{Success: true}})
}

// Search godoc
// @Summary      Search todos by title or description
// @Tags         todos
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Param        q    query     string  false  "Case-insensitive substring"
// @Success      200  {object}  dto.DataResponse[[]dto.TodoResponse]
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /todos/search [get]
func (h *TodoHandler) Search(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var q dto.SearchTodosQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}
	list, err := h.svc.Search(c.Request.Context(), userID, q.Q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse[[]dto.TodoResponse]{Data: todosToResponses(list)})
}

// Overdue godoc
// @Summary      List overdue todos
// @Description  Incomplete todos whose due date has passed, earliest first.
// @Tags         todos
// @Produce      json
// @Security     CookieAuth
// @Security     BearerAuth
// @Success      200  {object}  dto.DataResponse[[]dto.TodoResponse]
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /todos/overdue [get]
func (h *TodoHandler) Overdue(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	list, err := h.svc.Overdue(c.Request.Context(), userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, dto.DataResponse[[]dto.TodoResponse]{Data: todosToResponses(list)})
}

// requireUser reads the id bound by auth.RequireSession. Routes mounted
// without it fail closed.
func requireUser(c *gin.Context) (string, bool) {
	userID, ok := auth.UserID(c)
	if !ok {
		_ = c.Error(auth.ErrUnauthorized)
		c.Abort()
	}
	return userID, ok
}

func todoToResponse(t dom.Todo) dto.TodoResponse {
	return dto.TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    string(t.Priority),
		DueDate:     dto.NewTimestamp(t.DueDate),
		CreatedAt:   dto.Timestamp{Time: t.CreatedAt},
		UpdatedAt:   dto.Timestamp{Time: t.UpdatedAt},
		UserID:      t.UserID,
	}
}

func todosToResponses(list []dom.Todo) []dto.TodoResponse {
	out := make([]dto.TodoResponse, len(list))
	for i := range list {
		out[i] = todoToResponse(list[i])
	}
	return out
}
