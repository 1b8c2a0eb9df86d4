package controller

import (
	"context"
	"errors"
	"io"

	"kt-assistant-be/internal/dto"
	"kt-assistant-be/internal/pkg/logger"
	"kt-assistant-be/internal/pkg/serverutils"
	"kt-assistant-be/internal/service"
	internalWS "kt-assistant-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IInterviewController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
	UploadDocument(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
	GenerateSummary(ctx *fiber.Ctx) error
	GetSummary(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	ServeWs(ctx *fiber.Ctx) error
}

type interviewController struct {
	interviewService service.IInterviewService
	hub              *internalWS.Hub
	logger           logger.ILogger
}

func NewInterviewController(interviewService service.IInterviewService, hub *internalWS.Hub, log logger.ILogger) IInterviewController {
	return &interviewController{
		interviewService: interviewService,
		hub:              hub,
		logger:           log,
	}
}

func (c *interviewController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/interview/v1")
	h.Post("", c.Start)
	h.Get(":id/ws", c.ServeWs)
	h.Get(":id/search", c.Search)
	h.Post(":id/messages", c.SendMessage)
	h.Post(":id/documents", c.UploadDocument)
	h.Post(":id/summary", c.GenerateSummary)
	h.Get(":id/summary", c.GetSummary)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Delete)
}

// toHTTPError maps service sentinel errors onto status codes.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrSummaryNotFound):
		return serverutils.NewHTTPError(fiber.StatusNotFound, capitalize(err.Error()))
	case errors.Is(err, service.ErrNoTextExtracted):
		return serverutils.NewHTTPError(fiber.StatusBadRequest, capitalize(err.Error()))
	case errors.Is(err, service.ErrKnowledgeBaseLocked), errors.Is(err, service.ErrTopicsIncomplete):
		return serverutils.NewHTTPError(fiber.StatusConflict, capitalize(err.Error()))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return serverutils.NewHTTPError(fiber.StatusRequestTimeout, "The request was cancelled before it finished.")
	}
	return err
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b) + "."
}

func (c *interviewController) Start(ctx *fiber.Ctx) error {
	res, err := c.interviewService.Start(ctx.UserContext())
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Success start session", res))
}

func (c *interviewController) Show(ctx *fiber.Ctx) error {
	res, err := c.interviewService.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *interviewController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.interviewService.SendMessage(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return toHTTPError(err)
	}

	c.hub.SendToSession(ctx.Params("id"), dto.WsTurnMessage{Type: internalWS.FrameTurn, Turn: res})
	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *interviewController) UploadDocument(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return serverutils.NewHTTPError(fiber.StatusBadRequest, "A file is required in the 'file' form field.")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	res, err := c.interviewService.UploadDocument(ctx.UserContext(), ctx.Params("id"), fileHeader.Filename, data)
	if err != nil {
		return toHTTPError(err)
	}

	message := "Success process document"
	if !res.Processed {
		message = "Document already processed"
	}
	return ctx.JSON(serverutils.SuccessResponse(message, res))
}

func (c *interviewController) Search(ctx *fiber.Ctx) error {
	var req dto.SearchRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.interviewService.Search(ctx.UserContext(), ctx.Params("id"), &req)
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search knowledge base", res))
}

func (c *interviewController) GenerateSummary(ctx *fiber.Ctx) error {
	res, err := c.interviewService.GenerateSummary(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success generate summary", res))
}

func (c *interviewController) GetSummary(ctx *fiber.Ctx) error {
	res, err := c.interviewService.GetSummary(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show summary", res))
}

func (c *interviewController) Delete(ctx *fiber.Ctx) error {
	if err := c.interviewService.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return toHTTPError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success clear session", nil))
}

// ServeWs upgrades to a websocket carrying chat turns for one session.
func (c *interviewController) ServeWs(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("id")
	if _, err := c.interviewService.Get(ctx.UserContext(), sessionId); err != nil {
		return toHTTPError(err)
	}

	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	return websocket.New(func(conn *websocket.Conn) {
		c.logger.Info("InterviewController", "Starting WebSocket session", map[string]interface{}{"session_id": sessionId})
		internalWS.ServeWs(c.hub, conn, sessionId, func(turnCtx context.Context, content string) (*dto.TurnResponse, error) {
			req := &dto.SendMessageRequest{Content: content}
			if err := serverutils.ValidateRequest(req); err != nil {
				return nil, err
			}
			turn, err := c.interviewService.SendMessage(turnCtx, sessionId, req)
			if err != nil {
				return nil, toHTTPError(err)
			}
			return turn, nil
		}, c.logger)
		c.logger.Info("InterviewController", "WebSocket session ended", map[string]interface{}{"session_id": sessionId})
	})(ctx)
}
