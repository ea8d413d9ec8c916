package controller

import (
	"strings"

	"med-agent-be/internal/dto"
	"med-agent-be/internal/pkg/serverutils"
	"med-agent-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatbotController interface {
	RegisterRoutes(r fiber.Router, middlewares ...fiber.Handler)
	SendChat(ctx *fiber.Ctx) error
	GetChatHistory(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
}

type chatbotController struct {
	service service.IChatbotService
}

func NewChatbotController(service service.IChatbotService) IChatbotController {
	return &chatbotController{service: service}
}

func (c *chatbotController) RegisterRoutes(r fiber.Router, middlewares ...fiber.Handler) {
	h := r.Group("/chat/v1")
	for _, m := range middlewares {
		h.Use(m)
	}
	h.Post("/send", c.SendChat)
	h.Get("/:session_id/history", c.GetChatHistory)
	h.Delete("/:session_id", c.DeleteSession)
}

func (c *chatbotController) SendChat(ctx *fiber.Ctx) error {
	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	req.Chat = strings.TrimSpace(req.Chat)
	req.SessionId = strings.TrimSpace(req.SessionId)

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SendChat(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (c *chatbotController) GetChatHistory(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("session_id")
	res, err := c.service.GetChatHistory(ctx.UserContext(), sessionId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get chat history", res))
}

func (c *chatbotController) DeleteSession(ctx *fiber.Ctx) error {
	sessionId := ctx.Params("session_id")
	if err := c.service.DeleteSession(ctx.UserContext(), sessionId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete session", nil))
}
