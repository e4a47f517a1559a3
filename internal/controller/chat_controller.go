package controller

import (
	"pdf-chat-client/internal/dto"
	"pdf-chat-client/internal/pkg/serverutils"
	"pdf-chat-client/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	State(ctx *fiber.Ctx) error
	Send(ctx *fiber.Ctx) error
	SelectScope(ctx *fiber.Ctx) error
	ClearChat(ctx *fiber.Ctx) error
	ClearHistory(ctx *fiber.Ctx) error
	HistoryStats(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
	auth    fiber.Handler
}

func NewChatController(service service.IChatService, auth fiber.Handler) IChatController {
	return &chatController{service: service, auth: auth}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(c.auth)
	h.Get("", c.State)
	h.Delete("", c.ClearChat)
	h.Post("messages", c.Send)
	h.Put("scope", c.SelectScope)
	h.Get("history/stats", c.HistoryStats)
	h.Delete("history", c.ClearHistory)
}

func (c *chatController) State(ctx *fiber.Ctx) error {
	res, err := c.service.State(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get chat state", res))
}

// Send answers with the stored reply. When the ask failed the apology reply
// is returned with the error status.
func (c *chatController) Send(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Send(ctx.UserContext(), &req)
	if err != nil {
		if res == nil {
			return err
		}
		code := serverutils.StatusFor(err)
		return ctx.Status(code).JSON(serverutils.BaseResponse[*dto.ChatMessageResponse]{
			Success: false,
			Code:    code,
			Message: err.Error(),
			Data:    res,
		})
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send message", res))
}

func (c *chatController) SelectScope(ctx *fiber.Ctx) error {
	var req dto.SelectScopeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SelectScope(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select scope", res))
}

func (c *chatController) ClearChat(ctx *fiber.Ctx) error {
	if err := c.service.ClearChat(ctx.UserContext()); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success clear chat", nil))
}

func (c *chatController) ClearHistory(ctx *fiber.Ctx) error {
	if err := c.service.ClearHistory(ctx.UserContext()); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success clear history", nil))
}

func (c *chatController) HistoryStats(ctx *fiber.Ctx) error {
	res, err := c.service.HistoryStats(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get history stats", res))
}
