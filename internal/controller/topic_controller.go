package controller

import (
	"newsbox-topics/internal/dto"
	"newsbox-topics/internal/pkg/serverutils"
	"newsbox-topics/internal/service"
	"newsbox-topics/pkg/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ITopicController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Rebuild(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Pin(ctx *fiber.Ctx) error
	Archive(ctx *fiber.Ctx) error
	SetMembership(ctx *fiber.Ctx) error
}

type topicController struct {
	rebuildService service.ITopicRebuildService
	topicService   service.ITopicService
}

func NewTopicController(rebuildService service.ITopicRebuildService, topicService service.ITopicService) ITopicController {
	return &topicController{
		rebuildService: rebuildService,
		topicService:   topicService,
	}
}

func (c *topicController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/topic/v1")
	h.Use(auth)
	h.Post("rebuild", c.Rebuild)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Put(":id/pin", c.Pin)
	h.Put(":id/archive", c.Archive)
	h.Put(":id/members/:noteId", c.SetMembership)
}

func (c *topicController) Rebuild(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.RebuildOptions
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.rebuildService.RebuildTopics(ctx.UserContext(), userId, req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Topics rebuilt", res))
}

func (c *topicController) List(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.ListTopicsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.topicService.List(ctx.UserContext(), userId, req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get topics", res))
}

func (c *topicController) Show(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	res, err := c.topicService.Show(ctx.UserContext(), userId, id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show topic", res))
}

func (c *topicController) Pin(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.PinTopicRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.topicService.SetPinned(ctx.UserContext(), userId, id, *req.Pinned)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update topic", res))
}

func (c *topicController) Archive(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var req dto.ArchiveTopicRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.topicService.SetArchived(ctx.UserContext(), userId, id, *req.Archived)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update topic", res))
}

func (c *topicController) SetMembership(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	noteId, err := pathID(ctx, "noteId")
	if err != nil {
		return err
	}

	var req dto.SetMembershipRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.topicService.SetMembership(ctx.UserContext(), userId, id, noteId, req.Action)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success update membership", res))
}

func currentUser(ctx *fiber.Ctx) (uuid.UUID, error) {
	userIdStr, _ := ctx.Locals("user_id").(string)
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid user")
	}
	return userId, nil
}

func pathID(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, apperr.New(apperr.KindValidation, "parse path", name+" must be a UUID", "")
	}
	return id, nil
}
