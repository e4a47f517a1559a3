package controller

import (
	"io"

	"pdf-chat-client/internal/dto"
	"pdf-chat-client/internal/pkg/serverutils"
	"pdf-chat-client/internal/service"
	"pdf-chat-client/pkg/workspace"

	"github.com/gofiber/fiber/v2"
)

type IDocumentController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
	Reload(ctx *fiber.Ctx) error
	Upload(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	DeleteAll(ctx *fiber.Ctx) error
	Download(ctx *fiber.Ctx) error
}

type documentController struct {
	service service.IDocumentService
	auth    fiber.Handler
}

func NewDocumentController(service service.IDocumentService, auth fiber.Handler) IDocumentController {
	return &documentController{service: service, auth: auth}
}

func (c *documentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/documents/v1")
	h.Use(c.auth)
	h.Get("", c.List)
	h.Post("", c.Upload)
	h.Delete("", c.DeleteAll)
	h.Post("reload", c.Reload)
	h.Get(":id", c.Show)
	h.Delete(":id", c.Delete)
	h.Post(":id/download", c.Download)
}

func (c *documentController) List(ctx *fiber.Ctx) error {
	var req dto.ListDocumentsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list documents", res))
}

func (c *documentController) Reload(ctx *fiber.Ctx) error {
	res, err := c.service.Reload(ctx.UserContext())
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success reload documents", res))
}

// Upload reads every part named "files". Per-file outcomes are in the body.
func (c *documentController) Upload(ctx *fiber.Ctx) error {
	form, err := ctx.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "expected multipart form")
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no files in form field \"files\"")
	}

	files := make([]workspace.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return err
		}
		files = append(files, workspace.File{Name: fh.Filename, Data: data})
	}

	res, err := c.service.Upload(ctx.UserContext(), files)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success upload documents", res))
}

func (c *documentController) Show(ctx *fiber.Ctx) error {
	res, err := c.service.Show(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show document", res))
}

func (c *documentController) Delete(ctx *fiber.Ctx) error {
	if err := c.service.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete document", nil))
}

func (c *documentController) DeleteAll(ctx *fiber.Ctx) error {
	if err := c.service.DeleteAll(ctx.UserContext()); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete all documents", nil))
}

func (c *documentController) Download(ctx *fiber.Ctx) error {
	res, err := c.service.Download(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success download document", res))
}
