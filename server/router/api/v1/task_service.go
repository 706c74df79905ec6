package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v5"
	"github.com/pkg/errors"

	"github.com/usetaskchat/taskchat/store"
)

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateTaskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

type taskResponse struct {
	ID          int32  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CreatedTs   int64  `json:"created_ts"`
	UpdatedTs   int64  `json:"updated_ts"`
}

func convertTask(task *store.Task) taskResponse {
	return taskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Completed:   task.Completed,
		CreatedTs:   task.CreatedTs,
		UpdatedTs:   task.UpdatedTs,
	}
}

func (s *APIV1Service) registerTaskRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/users/:uid/tasks")
	g.GET("", s.listTasks)
	g.POST("", s.createTask)
	g.GET("/:id", s.getTask)
	g.PATCH("/:id", s.updateTask)
	g.PATCH("/:id/complete", s.completeTask)
	g.DELETE("/:id", s.deleteTask)
}

func (s *APIV1Service) listTasks(c *echo.Context) error {
	user, err := s.requireAuthOwner(c)
	if user == nil {
		return err
	}
	completed, err := store.ParseTaskStatus(c.Request().URL.Query().Get("status"))
	if err != nil {
		return storeErrorJSON(c, err)
	}
	taskList, err := s.Store.ListTasks(c.Request().Context(), &store.FindTask{
		CreatorID: user.ID,
		Completed: completed,
	})
	if err != nil {
		return storeErrorJSON(c, err)
	}
	resp := make([]taskResponse, 0, len(taskList))
	for _, task := range taskList {
		resp = append(resp, convertTask(task))
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *APIV1Service) createTask(c *echo.Context) error {
	user, err := s.requireAuthOwner(c)
	if user == nil {
		return err
	}
	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, errKindValidation, "malformed request body")
	}
	task, err := s.Store.CreateTask(c.Request().Context(), &store.Task{
		CreatorID:   user.ID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return storeErrorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, convertTask(task))
}

func (s *APIV1Service) getTask(c *echo.Context) error {
	user, err := s.requireAuthOwner(c)
	if user == nil {
		return err
	}
	id, err := taskIDParam(c)
	if err != nil {
		return storeErrorJSON(c, err)
	}
	task, err := s.Store.GetTask(c.Request().Context(), &store.FindTask{ID: &id, CreatorID: user.ID})
	if err != nil {
		return storeErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, convertTask(task))
}

func (s *APIV1Service) updateTask(c *echo.Context) error {
	user, err := s.requireAuthOwner(c)
	if user == nil {
		return err
	}
	id, err := taskIDParam(c)
	if err != nil {
		return storeErrorJSON(c, err)
	}
	var req updateTaskRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, errKindValidation, "malformed request body")
	}
	task, err := s.Store.UpdateTask(c.Request().Context(), &store.UpdateTask{
		ID:          id,
		CreatorID:   user.ID,
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		return storeErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, convertTask(task))
}

func (s *APIV1Service) completeTask(c *echo.Context) error {
	user, err := s.requireAuthOwner(c)
	if user == nil {
		return err
	}
	id, err := taskIDParam(c)
	if err != nil {
		return storeErrorJSON(c, err)
	}
	task, err := s.Store.CompleteTask(c.Request().Context(), &store.UpdateTask{ID: id, CreatorID: user.ID})
	if err != nil {
		return storeErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, convertTask(task))
}

func (s *APIV1Service) deleteTask(c *echo.Context) error {
	user, err := s.requireAuthOwner(c)
	if user == nil {
		return err
	}
	id, err := taskIDParam(c)
	if err != nil {
		return storeErrorJSON(c, err)
	}
	if err := s.Store.DeleteTask(c.Request().Context(), &store.DeleteTask{ID: id, CreatorID: user.ID}); err != nil {
		return storeErrorJSON(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "task deleted"})
}

func taskIDParam(c *echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil || id <= 0 {
		return 0, errors.Wrap(store.ErrValidation, "task id must be a positive integer")
	}
	return int32(id), nil
}
