package http

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "waste-collector.com/waste-collector/internal/errors"
	"waste-collector.com/waste-collector/internal/http/validators"
	"waste-collector.com/waste-collector/internal/identity"
	model "waste-collector.com/waste-collector/internal/models"
	"waste-collector.com/waste-collector/internal/services"
)

type Handler struct {
	taskService         *services.TaskService
	verificationService *services.VerificationService
	rewardService       *services.RewardService
	maxImageBytes       int64
}

func NewHandler(
	taskService *services.TaskService,
	verificationService *services.VerificationService,
	rewardService *services.RewardService,
	maxImageBytes int64,
) *Handler {
	return &Handler{
		taskService:         taskService,
		verificationService: verificationService,
		rewardService:       rewardService,
		maxImageBytes:       maxImageBytes,
	}
}

func (h *Handler) ListTasks(c echo.Context) error {
	filter, err := validators.ParseTaskFilter(c)
	if err != nil {
		return err
	}

	page, err := h.taskService.ListTasks(c.Request().Context(), filter)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, page)
}

func (h *Handler) GetTask(c echo.Context) error {
	id, err := validators.ParseTaskID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, task)
}

func (h *Handler) ClaimTask(c echo.Context) error {
	id, err := validators.ParseTaskID(c)
	if err != nil {
		return err
	}

	user, err := h.currentUser(c)
	if err != nil {
		return toHTTPError(err)
	}

	task, err := h.taskService.Claim(c.Request().Context(), id, user)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, task)
}

func (h *Handler) VerifyTask(c echo.Context) error {
	id, err := validators.ParseTaskID(c)
	if err != nil {
		return err
	}

	user, err := h.currentUser(c)
	if err != nil {
		return toHTTPError(err)
	}

	image, err := h.readImage(c)
	if err != nil {
		return err
	}

	settlement, err := h.verificationService.SubmitVerification(c.Request().Context(), id, user, image)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, settlement)
}

func (h *Handler) MyRewards(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return toHTTPError(err)
	}

	balance, err := h.rewardService.Balance(c.Request().Context(), user)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, balance)
}

func (h *Handler) Impact(c echo.Context) error {
	impact, err := h.rewardService.Impact(c.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, impact)
}

func (h *Handler) currentUser(c echo.Context) (*model.User, error) {
	ctx := c.Request().Context()
	return h.taskService.ResolveUser(ctx, identity.FromContext(ctx))
}

// readImage accepts either a multipart "image" field or a raw image body.
// An absent image yields nil so the service can report missing evidence.
func (h *Handler) readImage(c echo.Context) ([]byte, error) {
	var src io.Reader

	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("image")
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				return nil, nil
			}
			return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart payload")
		}
		f, err := fh.Open()
		if err != nil {
			return nil, echo.NewHTTPError(http.StatusBadRequest, "unreadable image upload")
		}
		defer f.Close()
		src = f
	} else {
		src = c.Request().Body
	}

	data, err := io.ReadAll(io.LimitReader(src, h.maxImageBytes+1))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "unreadable image upload")
	}
	if int64(len(data)) > h.maxImageBytes {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "image is too large")
	}
	return data, nil
}

func toHTTPError(err error) error {
	var rejected *services.RejectedError
	if errors.As(err, &rejected) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, echo.Map{
			"message": apperrors.ErrVerificationRejected.Message,
			"result":  rejected.Result,
		})
	}

	if errors.Is(err, context.Canceled) {
		return echo.NewHTTPError(apperrors.ErrRequestCanceled.StatusCode, apperrors.ErrRequestCanceled.Message)
	}

	status := apperrors.StatusCode(err)
	if status >= http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
	}
	return echo.NewHTTPError(status, apperrors.Message(err))
}
